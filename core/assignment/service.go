package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/course"
)

var (
	ErrNotFound                = core.NewAppError(core.KindNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")
	ErrInvalidStatusTransition = core.NewAppError(core.KindStateConflict, "INVALID_STATUS_TRANSITION", "invalid assignment status transition")
	ErrMissingTitle            = core.NewAppError(core.KindValidation, "MISSING_TITLE", "assignment title is required")
	ErrPastDueDate             = core.NewAppError(core.KindValidation, "PAST_DUE_DATE", "due date must be a future date")
	ErrPastDueDateOnPublish    = core.NewAppError(core.KindValidation, "PAST_DUE_DATE_ON_PUBLISH", "due date must be after the current time")
	ErrCourseNotPublished      = core.NewAppError(core.KindValidation, "COURSE_NOT_PUBLISHED", "the course must be published first")
	ErrCourseNotActive         = core.NewAppError(core.KindValidation, "COURSE_NOT_ACTIVE", "assignments can only be created on an active course")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignmentsByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		// UpdateAssignmentStatus conditionally moves `id` from `from` to `to`
		// in a single write, reporting whether the write applied. Losing a
		// race is not an error; the caller decides what a false return means.
		UpdateAssignmentStatus(ctx context.Context, id string, from, to Status, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		courseRepo course.Repository
		clock      core.Clock
	}
)

func NewService(db core.DB, repo Repository, courseRepo course.Repository, clock core.Clock) *Service {
	return &Service{db: db, repo: repo, courseRepo: courseRepo, clock: clock}
}

// Create adds a new draft assignment to an active course.
// Ownership of the course has already been checked by the caller.
func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "getting course")
	}
	if !crs.Status.Active() {
		return Assignment{}, ErrCourseNotActive
	}

	now := svc.clock.Now()
	a := Assignment{
		ID:                uuid.New().String(),
		CourseID:          na.CourseID,
		Title:             na.Title,
		Description:       na.Description,
		DueDate:           na.DueDate.UTC(),
		Weight:            na.Weight,
		AllowLate:         na.AllowLate,
		AllowResubmission: na.AllowResubmission,
		Status:            StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return created, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// GetForLearner fetches an assignment the way learners see it: drafts are
// hidden and the lazy auto-close rule runs before the status is returned.
func (svc *Service) GetForLearner(ctx context.Context, courseID, assignmentID string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if a.CourseID != courseID || !a.Status.Visible() {
		return Assignment{}, ErrNotFound
	}
	return svc.AutoCloseIfExpired(ctx, a)
}

// Update modifies an existing assignment's editable fields. The owning course
// is immutable; validation of the incoming fields happened at the boundary.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	if ua.Title != nil {
		a.Title = *ua.Title
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if ua.DueDate != nil {
		a.DueDate = ua.DueDate.UTC()
	}
	if ua.Weight != nil {
		a.Weight = *ua.Weight
	}
	if ua.AllowLate != nil {
		a.AllowLate = *ua.AllowLate
	}
	if ua.AllowResubmission != nil {
		a.AllowResubmission = *ua.AllowResubmission
	}
	a.UpdatedAt = svc.clock.Now()

	updated, err := svc.repo.UpdateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return updated, nil
}

// Publish moves a draft assignment to published. Precondition order: status
// transition, title, due date, owning course's status.
func (svc *Service) Publish(ctx context.Context, id string) (Assignment, error) {
	var a Assignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		a, err = svc.repo.GetAssignmentByID(ctx, id, tx)
		if err != nil {
			return err
		}

		next, err := a.Status.Transition(StatusPublished)
		if err != nil {
			return err
		}
		if a.Title == "" {
			return ErrMissingTitle
		}
		now := svc.clock.Now()
		if a.Expired(now) {
			return ErrPastDueDateOnPublish
		}
		crs, err := svc.courseRepo.GetCourseByID(ctx, a.CourseID, tx)
		if err != nil {
			return errors.Wrap(err, "getting course")
		}
		if crs.Status != course.StatusPublished {
			return ErrCourseNotPublished
		}

		applied, err := svc.repo.UpdateAssignmentStatus(ctx, a.ID, a.Status, next, tx)
		if err != nil {
			return errors.Wrap(err, "publishing assignment")
		}
		if !applied {
			return ErrInvalidStatusTransition
		}
		a.Status = next
		a.UpdatedAt = now
		return nil
	})
	return a, err
}

// Close moves a published assignment to closed.
func (svc *Service) Close(ctx context.Context, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	next, err := a.Status.Transition(StatusClosed)
	if err != nil {
		return Assignment{}, err
	}
	applied, err := svc.repo.UpdateAssignmentStatus(ctx, a.ID, a.Status, next)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "closing assignment")
	}
	if !applied {
		return Assignment{}, ErrInvalidStatusTransition
	}
	a.Status = next
	return a, nil
}

// AutoCloseIfExpired applies the lazy deadline rule on the read path: a
// published assignment that does not allow late submission is closed once its
// due date has passed. The write is conditional on the current stored status
// being published, so concurrent callers racing on an expired assignment both
// come out seeing closed, exactly one write applies, and neither errors.
func (svc *Service) AutoCloseIfExpired(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error) {
	if a.Status != StatusPublished || a.AllowLate || !a.Expired(svc.clock.Now()) {
		return a, nil
	}
	if _, err := svc.repo.UpdateAssignmentStatus(ctx, a.ID, StatusPublished, StatusClosed, exec...); err != nil {
		return a, errors.Wrap(err, "auto-closing assignment")
	}
	a.Status = StatusClosed
	return a, nil
}

// QueryByCourse lists every assignment of a course, drafts included
// (instructor view).
func (svc *Service) QueryByCourse(ctx context.Context, courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByCourse(ctx, courseID)
}

// QueryVisibleByCourse lists the assignments learners may see, running the
// lazy auto-close rule on each.
func (svc *Service) QueryVisibleByCourse(ctx context.Context, courseID string) ([]Assignment, error) {
	all, err := svc.repo.QueryAssignmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	visible := make([]Assignment, 0, len(all))
	for _, a := range all {
		if !a.Status.Visible() {
			continue
		}
		a, err = svc.AutoCloseIfExpired(ctx, a)
		if err != nil {
			return nil, err
		}
		visible = append(visible, a)
	}
	return visible, nil
}

// CourseWeightTotal sums the weights of all assignments in a course.
// Weights are meant to add up to 100, but this is guidance surfaced to
// instructors, not an enforced invariant.
func (svc *Service) CourseWeightTotal(ctx context.Context, courseID string) (int, error) {
	all, err := svc.repo.QueryAssignmentsByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	var total int
	for _, a := range all {
		total += a.Weight
	}
	return total, nil
}
