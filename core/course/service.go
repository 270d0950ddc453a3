package course

import (
	"context"

	"github.com/kymanzi/darasa/core"
)

var (
	ErrNotFound           = core.NewAppError(core.KindNotFound, "COURSE_NOT_FOUND", "course not found")
	ErrEnrollmentNotFound = core.NewAppError(core.KindNotFound, "ENROLLMENT_NOT_FOUND", "enrollment not found")
)

type (
	Repository interface {
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		GetEnrollment(ctx context.Context, courseID, learnerID string, exec ...core.DBExecutor) (Enrollment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) GetEnrollment(ctx context.Context, courseID, learnerID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, courseID, learnerID)
}
