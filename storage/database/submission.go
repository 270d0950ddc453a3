package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/submission"
)

// pqUniqueViolation is the psql error code raised when the one-per-learner
// submission constraint trips.
const pqUniqueViolation = "23505"

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo submissionRepository) InsertSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	_, err := repo.getExec(exec).ExecContext(
		ctx,
		`INSERT INTO submission
		   (id, assignment_id, learner_id, content, link, is_late, status, submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		sub.ID, sub.AssignmentID, sub.LearnerID, sub.Content, sub.Link, sub.IsLate,
		sub.Status, sub.SubmittedAt.UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, assignmentID, learnerID string, exec ...core.DBExecutor) (submission.Submission, error) {
	var sub submission.Submission
	err := repo.getExec(exec).GetContext(
		ctx, &sub,
		`SELECT * FROM submission WHERE assignment_id = $1 AND learner_id = $2`,
		assignmentID, learnerID,
	)
	if err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting submission")
	}
	return sub, nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	var sub submission.Submission
	err := repo.getExec(exec).GetContext(ctx, &sub, `SELECT * FROM submission WHERE id = $1`, id)
	if err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting submission by id")
	}
	return sub, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	_, err := repo.getExec(exec).ExecContext(
		ctx,
		`UPDATE submission
		 SET content = $2, link = $3, is_late = $4, status = $5, score = $6,
		     feedback = $7, submitted_at = $8, graded_at = $9, updated_at = $10
		 WHERE id = $1`,
		sub.ID, sub.Content, sub.Link, sub.IsLate, sub.Status, sub.Score,
		sub.Feedback, sub.SubmittedAt.UTC(), sub.GradedAt, sub.UpdatedAt.UTC(),
	)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	return sub, nil
}

func (repo submissionRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID string, filter submission.Filter, exec ...core.DBExecutor) ([]submission.Submission, error) {
	q := `SELECT * FROM submission WHERE assignment_id = $1`
	switch filter {
	case submission.FilterSubmitted:
		q += ` AND status = 'submitted'`
	case submission.FilterLate:
		q += ` AND is_late`
	case submission.FilterResubmissionRequired:
		q += ` AND status = 'resubmission_required'`
	}
	ord := core.DBOrdering{Field: "submitted_at"} // newest first
	q += ` ORDER BY ` + ord.String()

	subs := make([]submission.Submission, 0)
	if err := repo.getExec(exec).SelectContext(ctx, &subs, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions by assignment")
	}
	return subs, nil
}

func (repo submissionRepository) QuerySubmissionsByLearner(ctx context.Context, learnerID string, assignmentIDs []string, exec ...core.DBExecutor) ([]submission.Submission, error) {
	if len(assignmentIDs) == 0 {
		return []submission.Submission{}, nil
	}
	subs := make([]submission.Submission, 0, len(assignmentIDs))
	err := repo.getExec(exec).SelectContext(
		ctx, &subs,
		`SELECT * FROM submission WHERE learner_id = $1 AND assignment_id = ANY($2)`,
		learnerID, pq.Array(assignmentIDs),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions by learner")
	}
	return subs, nil
}
