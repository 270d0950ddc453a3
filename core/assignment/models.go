package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kymanzi/darasa/core"
)

// Status is the assignment lifecycle state. It only ever moves forward:
// draft -> published -> closed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusClosed:
		return true
	}
	return false
}

// Visible reports whether learners may see the assignment at all.
func (s Status) Visible() bool {
	return s == StatusPublished || s == StatusClosed
}

// Transition returns the next status for the requested target, or
// ErrInvalidStatusTransition: the only edges are draft->published and
// published->closed. Forbidden moves (closed->published, published->published,
// draft->closed, ...) are explicit rejects, never silent no-ops.
func (s Status) Transition(target Status) (Status, error) {
	switch {
	case s == StatusDraft && target == StatusPublished:
		return StatusPublished, nil
	case s == StatusPublished && target == StatusClosed:
		return StatusClosed, nil
	}
	return s, ErrInvalidStatusTransition
}

type Assignment struct {
	ID                string    `json:"id" db:"id"`
	CourseID          string    `json:"course_id" db:"course_id"`
	Title             string    `json:"title" db:"title"`
	Description       string    `json:"description" db:"description"`
	DueDate           time.Time `json:"due_date" db:"due_date"` // UTC
	Weight            int       `json:"weight" db:"weight"`     // 0..100
	AllowLate         bool      `json:"allow_late" db:"allow_late"`
	AllowResubmission bool      `json:"allow_resubmission" db:"allow_resubmission"`
	Status            Status    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Expired reports whether the due date has passed at `now` (due date inclusive).
func (a Assignment) Expired(now time.Time) bool {
	return !now.Before(a.DueDate)
}

// NewAssignment contains information needed to create a new Assignment.
// Assignments are always created as drafts.
type NewAssignment struct {
	CourseID          string    `json:"course_id" validate:"required,uuid4"`
	Title             string    `json:"title" validate:"required"`
	Description       string    `json:"description"`
	DueDate           time.Time `json:"due_date" validate:"required"`
	Weight            int       `json:"weight" validate:"min=0,max=100"`
	AllowLate         bool      `json:"allow_late"`
	AllowResubmission bool      `json:"allow_resubmission"`
}

func (na *NewAssignment) Validate(validate *validator.Validate, now time.Time) error {
	na.Title = core.CleanString(na.Title)

	if err := validate.Struct(na); err != nil {
		return err
	}
	if !na.DueDate.After(now) {
		return ErrPastDueDate
	}
	return nil
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. The owning course can never change.
type UpdateAssignment struct {
	Title             *string    `json:"title" validate:"omitempty,min=1"`
	Description       *string    `json:"description"`
	DueDate           *time.Time `json:"due_date"`
	Weight            *int       `json:"weight" validate:"omitempty,min=0,max=100"`
	AllowLate         *bool      `json:"allow_late"`
	AllowResubmission *bool      `json:"allow_resubmission"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate, now time.Time) error {
	if ua.Title != nil {
		title := core.CleanString(*ua.Title)
		ua.Title = &title
	}

	if err := validate.Struct(ua); err != nil {
		return err
	}
	if ua.DueDate != nil && !ua.DueDate.After(now) {
		return ErrPastDueDate
	}
	return nil
}
