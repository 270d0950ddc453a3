package submission

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kymanzi/darasa/core"
)

// Status is the submission lifecycle state.
type Status string

const (
	StatusSubmitted            Status = "submitted"
	StatusGraded               Status = "graded"
	StatusResubmissionRequired Status = "resubmission_required"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusGraded, StatusResubmissionRequired:
		return true
	}
	return false
}

// Transition returns the next status for the requested target, or
// ErrInvalidStatusTransition. The edges are:
//   submitted -> graded
//   submitted -> resubmission_required
//   resubmission_required -> submitted
// graded has no outgoing edge; grading actions overwrite the status directly
// (see Service.Grade) so instructors can correct a past grade.
func (s Status) Transition(target Status) (Status, error) {
	switch {
	case s == StatusSubmitted && (target == StatusGraded || target == StatusResubmissionRequired):
		return target, nil
	case s == StatusResubmissionRequired && target == StatusSubmitted:
		return target, nil
	}
	return s, ErrInvalidStatusTransition
}

type Submission struct {
	ID           string      `json:"id" db:"id"`
	AssignmentID string      `json:"assignment_id" db:"assignment_id"`
	LearnerID    string      `json:"learner_id" db:"learner_id"`
	Content      string      `json:"content" db:"content"`
	Link         null.String `json:"link" db:"link"`
	IsLate       bool        `json:"is_late" db:"is_late"`
	Status       Status      `json:"status" db:"status"`
	Score        null.Int    `json:"score" db:"score"` // 0..100, set by grading
	Feedback     null.String `json:"feedback" db:"feedback"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"` // UTC
	GradedAt     null.Time   `json:"graded_at" db:"graded_at"`       // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`     // UTC
}

// NewSubmission contains a learner's attempt content; used for both first
// submissions and resubmissions.
type NewSubmission struct {
	Content string `json:"content" validate:"required"`
	Link    string `json:"link" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	ns.Link = core.CleanString(ns.Link)
	return validate.Struct(ns)
}

// GradeAction selects which grading action to apply.
type GradeAction string

const (
	ActionGrade               GradeAction = "grade"
	ActionRequestResubmission GradeAction = "request_resubmission"
)

// GradeSubmission is an instructor's grading request: either a grade
// (score + feedback) or a resubmission request (feedback only).
type GradeSubmission struct {
	Action   GradeAction `json:"action"`
	Score    *int        `json:"score"`
	Feedback string      `json:"feedback" validate:"required"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)

	switch gs.Action {
	case "":
		return ErrActionRequired
	case ActionGrade, ActionRequestResubmission:
	default:
		return ErrInvalidAction
	}
	if err := validate.Struct(gs); err != nil {
		return err
	}
	if gs.Action == ActionGrade {
		if gs.Score == nil {
			return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "this field is required"})
		}
		if *gs.Score < 0 || *gs.Score > 100 {
			return core.NewValidationError(nil, core.FieldError{Field: "score", Error: "score must be between 0 and 100"})
		}
	}
	return nil
}
