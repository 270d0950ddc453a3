package inmemdb

import (
	"context"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/course"
)

type courseRepository struct {
	courses     *courseTable
	enrollments *enrollmentTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{courses: db.course, enrollments: db.enrollment}
}

// SeedCourse inserts a course directly; test fixture helper.
func (repo *courseRepository) SeedCourse(crs course.Course) course.Course {
	repo.courses.mutex.Lock()
	defer repo.courses.mutex.Unlock()

	repo.courses.table[crs.ID] = &crs
	return crs
}

// SeedEnrollment inserts an enrollment directly; test fixture helper.
func (repo *courseRepository) SeedEnrollment(enr course.Enrollment) course.Enrollment {
	repo.enrollments.mutex.Lock()
	defer repo.enrollments.mutex.Unlock()

	repo.enrollments.table[enr.ID] = &enr
	return enr
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.courses.mutex.RLock()
	defer repo.courses.mutex.RUnlock()

	if crs, ok := repo.courses.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, learnerID string, exec ...core.DBExecutor) (course.Enrollment, error) {
	repo.enrollments.mutex.RLock()
	defer repo.enrollments.mutex.RUnlock()

	for _, enr := range repo.enrollments.table {
		if enr.CourseID == courseID && enr.LearnerID == learnerID {
			return *enr, nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}
