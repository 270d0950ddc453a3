package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/assignment"
)

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo assignmentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo assignmentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	_, err := repo.getExec(exec).ExecContext(
		ctx,
		`INSERT INTO assignment
		   (id, course_id, title, description, due_date, weight, allow_late, allow_resubmission, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		a.ID, a.CourseID, a.Title, a.Description, a.DueDate.UTC(), a.Weight,
		a.AllowLate, a.AllowResubmission, a.Status, a.CreatedAt.UTC(),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := repo.getExec(exec).GetContext(ctx, &a, `SELECT * FROM assignment WHERE id = $1`, id)
	if err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "getting assignment by id")
	}
	return a, nil
}

func (repo assignmentRepository) QueryAssignmentsByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	assignments := make([]assignment.Assignment, 0)
	err := repo.getExec(exec).SelectContext(
		ctx, &assignments,
		`SELECT * FROM assignment WHERE course_id = $1 ORDER BY due_date, created_at`,
		courseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by course")
	}
	return assignments, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	_, err := repo.getExec(exec).ExecContext(
		ctx,
		`UPDATE assignment
		 SET title = $2, description = $3, due_date = $4, weight = $5,
		     allow_late = $6, allow_resubmission = $7, updated_at = $8
		 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.DueDate.UTC(), a.Weight,
		a.AllowLate, a.AllowResubmission, a.UpdatedAt.UTC(),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (repo assignmentRepository) UpdateAssignmentStatus(ctx context.Context, id string, from, to assignment.Status, exec ...core.DBExecutor) (bool, error) {
	// single conditional write; losing the race leaves zero rows affected
	res, err := repo.getExec(exec).ExecContext(
		ctx,
		`UPDATE assignment SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, errors.Wrap(err, "updating assignment status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "updating assignment status")
	}
	return n > 0, nil
}
