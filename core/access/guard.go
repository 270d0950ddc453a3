// Package access holds the stateless precondition checks every operation
// passes through before touching domain state: role, enrollment and ownership.
package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/user"
)

var (
	ErrUnauthorized  = core.NewAppError(core.KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbiddenRole = core.NewAppError(core.KindForbiddenRole, "FORBIDDEN_ROLE", "your role does not allow this")
	ErrNotEnrolled   = core.NewAppError(core.KindForbidden, "NOT_ENROLLED", "you are not enrolled in this course")
	ErrNotOwner      = core.NewAppError(core.KindForbidden, "FORBIDDEN", "only the course instructor may do this")
)

type (
	// Guard checks the fixed preconditions callers run before invoking a
	// lifecycle or grading operation.
	Guard interface {
		RequireRole(usr user.User, roles ...string) error
		RequireActiveEnrollment(ctx context.Context, courseID, learnerID string) error
		RequireCourseOwnership(ctx context.Context, courseID, instructorID string) error
	}

	guard struct {
		courseRepo course.Repository
	}
)

var _ Guard = (*guard)(nil)

func NewGuard(courseRepo course.Repository) Guard {
	return &guard{courseRepo: courseRepo}
}

func (g *guard) RequireRole(usr user.User, roles ...string) error {
	if usr.ID == "" {
		return ErrUnauthorized
	}
	if !usr.IsActive {
		return ErrUnauthorized
	}
	for _, role := range roles {
		if usr.RoleStartsWith(role) {
			return nil
		}
	}
	return ErrForbiddenRole
}

func (g *guard) RequireActiveEnrollment(ctx context.Context, courseID, learnerID string) error {
	enr, err := g.courseRepo.GetEnrollment(ctx, courseID, learnerID)
	if err != nil {
		if errors.Cause(err) == course.ErrEnrollmentNotFound {
			return ErrNotEnrolled
		}
		return errors.Wrap(err, "getting enrollment")
	}
	if enr.Status != course.EnrollmentActive {
		return ErrNotEnrolled
	}
	return nil
}

func (g *guard) RequireCourseOwnership(ctx context.Context, courseID, instructorID string) error {
	crs, err := g.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return ErrNotOwner
		}
		return errors.Wrap(err, "getting course")
	}
	if crs.InstructorID != instructorID {
		return ErrNotOwner
	}
	return nil
}
