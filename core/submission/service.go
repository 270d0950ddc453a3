package submission

import (
	"context"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/user"
)

var (
	ErrNotFound = core.NewAppError(core.KindNotFound, "SUBMISSION_NOT_FOUND", "submission not found")
	// ErrNoSubmissionToResubmit is the resubmit-path flavor of a missing
	// submission: there is nothing to resubmit, which is a state problem on
	// the learner's side rather than a missing resource.
	ErrNoSubmissionToResubmit  = core.NewAppError(core.KindStateConflict, "SUBMISSION_NOT_FOUND", "you have not submitted this assignment yet")
	ErrAlreadySubmitted        = core.NewAppError(core.KindConflict, "ALREADY_SUBMITTED", "you have already submitted this assignment")
	ErrAssignmentClosed        = core.NewAppError(core.KindStateConflict, "ASSIGNMENT_CLOSED", "this assignment is closed")
	ErrLateNotAllowed          = core.NewAppError(core.KindStateConflict, "LATE_NOT_ALLOWED", "the due date has passed and late submission is not allowed")
	ErrResubmitNotAllowed      = core.NewAppError(core.KindStateConflict, "RESUBMIT_NOT_ALLOWED", "this assignment does not allow resubmission")
	ErrNotResubmitRequired     = core.NewAppError(core.KindStateConflict, "NOT_RESUBMIT_REQUIRED", "a resubmission has not been requested")
	ErrInvalidStatusTransition = core.NewAppError(core.KindStateConflict, "INVALID_STATUS_TRANSITION", "invalid submission status transition")
	ErrActionRequired          = core.NewAppError(core.KindStateConflict, "ACTION_REQUIRED", "a grading action is required")
	ErrInvalidAction           = core.NewAppError(core.KindStateConflict, "INVALID_ACTION", "unknown grading action")
)

type (
	Repository interface {
		// InsertSubmission persists a new submission; a storage uniqueness
		// violation on (assignment_id, learner_id) must surface as
		// ErrAlreadySubmitted rather than a raw constraint error.
		InsertSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, assignmentID, learnerID string, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID string, filter Filter, exec ...core.DBExecutor) ([]Submission, error)
		QuerySubmissionsByLearner(ctx context.Context, learnerID string, assignmentIDs []string, exec ...core.DBExecutor) ([]Submission, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		assignRepo assignment.Repository
		assignSvc  *assignment.Service
		usrRepo    user.Repository
		mailSvc    core.EmailService
		clock      core.Clock
	}
)

// Filter narrows an instructor's submissions listing.
type Filter string

const (
	FilterAll                  Filter = "all"
	FilterSubmitted            Filter = "submitted"
	FilterLate                 Filter = "late"
	FilterResubmissionRequired Filter = "resubmission_required"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterSubmitted, FilterLate, FilterResubmissionRequired:
		return true
	}
	return false
}

func NewService(
	db core.DB,
	repo Repository,
	assignRepo assignment.Repository,
	assignSvc *assignment.Service,
	usrRepo user.Repository,
	mailSvc core.EmailService,
	clock core.Clock,
) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		assignRepo: assignRepo,
		assignSvc:  assignSvc,
		usrRepo:    usrRepo,
		mailSvc:    mailSvc,
		clock:      clock,
	}
}

// Submit records a learner's first attempt at an assignment.
// Precondition order matters: hidden draft, then closed, then duplicate,
// then lateness. No partial state is ever written before the last check.
func (svc *Service) Submit(ctx context.Context, courseID, assignmentID, learnerID string, ns NewSubmission) (Submission, error) {
	var sub Submission
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		a, err := svc.assignRepo.GetAssignmentByID(ctx, assignmentID, tx)
		if err != nil {
			return err
		}
		if a.CourseID != courseID {
			return assignment.ErrNotFound
		}
		a, err = svc.assignSvc.AutoCloseIfExpired(ctx, a, tx)
		if err != nil {
			return err
		}

		// drafts are invisible to learners
		if a.Status == assignment.StatusDraft {
			return assignment.ErrNotFound
		}
		if a.Status == assignment.StatusClosed {
			return ErrAssignmentClosed
		}

		if _, err := svc.repo.GetSubmission(ctx, assignmentID, learnerID, tx); err == nil {
			return ErrAlreadySubmitted
		} else if errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "checking existing submission")
		}

		now := svc.clock.Now()
		isLate := now.After(a.DueDate)
		if isLate && !a.AllowLate {
			return ErrLateNotAllowed
		}

		sub = Submission{
			ID:           uuid.New().String(),
			AssignmentID: assignmentID,
			LearnerID:    learnerID,
			Content:      ns.Content,
			Link:         null.NewString(ns.Link, ns.Link != ""),
			IsLate:       isLate,
			Status:       StatusSubmitted,
			SubmittedAt:  now,
			UpdatedAt:    now,
		}
		sub, err = svc.repo.InsertSubmission(ctx, sub, tx)
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Resubmit overwrites a learner's attempt after an instructor requested it.
// isLate is recomputed against now; any prior score/feedback stay in place
// until the next grading action overwrites them.
func (svc *Service) Resubmit(ctx context.Context, courseID, assignmentID, learnerID string, ns NewSubmission) (Submission, error) {
	var sub Submission
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		a, err := svc.assignRepo.GetAssignmentByID(ctx, assignmentID, tx)
		if err != nil {
			return err
		}
		if a.CourseID != courseID || !a.Status.Visible() {
			return assignment.ErrNotFound
		}
		if !a.AllowResubmission {
			return ErrResubmitNotAllowed
		}

		sub, err = svc.repo.GetSubmission(ctx, assignmentID, learnerID, tx)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return ErrNoSubmissionToResubmit
			}
			return errors.Wrap(err, "getting submission")
		}
		next, err := sub.Status.Transition(StatusSubmitted)
		if err != nil {
			return ErrNotResubmitRequired
		}

		now := svc.clock.Now()
		sub.Content = ns.Content
		sub.Link = null.NewString(ns.Link, ns.Link != "")
		sub.IsLate = now.After(a.DueDate)
		sub.Status = next
		sub.SubmittedAt = now
		sub.UpdatedAt = now

		sub, err = svc.repo.UpdateSubmission(ctx, sub, tx)
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Grade applies an instructor's grade to a submission. There is deliberately
// no precondition on the current status: an instructor may correct a past
// grade or grade a resubmission-required attempt directly.
func (svc *Service) Grade(ctx context.Context, submissionID string, score int, feedback string) (Submission, error) {
	var sub Submission
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		sub, err = svc.repo.GetSubmissionByID(ctx, submissionID, tx)
		if err != nil {
			return err
		}

		now := svc.clock.Now()
		sub.Status = StatusGraded
		sub.Score = null.IntFrom(score)
		sub.Feedback = null.StringFrom(feedback)
		sub.GradedAt = null.TimeFrom(now)
		sub.UpdatedAt = now

		sub, err = svc.repo.UpdateSubmission(ctx, sub, tx)
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// RequestResubmission flags a submission for another attempt. Score and
// gradedAt are left untouched; the learner is notified by email.
func (svc *Service) RequestResubmission(ctx context.Context, submissionID string, feedback string) (Submission, error) {
	var sub Submission
	var a assignment.Assignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		sub, err = svc.repo.GetSubmissionByID(ctx, submissionID, tx)
		if err != nil {
			return err
		}
		a, err = svc.assignRepo.GetAssignmentByID(ctx, sub.AssignmentID, tx)
		if err != nil {
			return errors.Wrap(err, "getting assignment")
		}
		if !a.AllowResubmission {
			return ErrResubmitNotAllowed
		}

		sub.Status = StatusResubmissionRequired
		sub.Feedback = null.StringFrom(feedback)
		sub.UpdatedAt = svc.clock.Now()

		sub, err = svc.repo.UpdateSubmission(ctx, sub, tx)
		return err
	})
	if err != nil {
		return Submission{}, err
	}

	svc.sendResubmissionRequestedMail(ctx, a, sub)
	return sub, nil
}

func (svc *Service) sendResubmissionRequestedMail(ctx context.Context, a assignment.Assignment, sub Submission) {
	learner, err := svc.usrRepo.GetUserByID(ctx, sub.LearnerID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: learner.Name, Address: learner.Email}},
		Subject:      "Resubmission requested: " + a.Title,
		TemplateName: "resubmission-requested",
		TemplateData: struct {
			Name            string
			AssignmentTitle string
			AssignmentID    string
			CourseID        string
			Feedback        string
		}{learner.Name, a.Title, a.ID, a.CourseID, sub.Feedback.String},
	})
}

// GetByID fetches a single submission (instructor grading path).
func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

// GetForLearner fetches a learner's own submission for an assignment, or
// ErrNotFound when none exists.
func (svc *Service) GetForLearner(ctx context.Context, assignmentID, learnerID string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, assignmentID, learnerID)
}

// QueryByAssignment lists submissions of an assignment, newest first,
// optionally narrowed by filter (instructor view).
func (svc *Service) QueryByAssignment(ctx context.Context, assignmentID string, filter Filter) ([]Submission, error) {
	if filter == "" {
		filter = FilterAll
	}
	return svc.repo.QuerySubmissionsByAssignment(ctx, assignmentID, filter)
}

// QueryByLearner maps a learner's submissions by assignment ID for the
// grade view.
func (svc *Service) QueryByLearner(ctx context.Context, learnerID string, assignmentIDs []string) (map[string]Submission, error) {
	subs, err := svc.repo.QuerySubmissionsByLearner(ctx, learnerID, assignmentIDs)
	if err != nil {
		return nil, err
	}
	byAssignment := make(map[string]Submission, len(subs))
	for _, sub := range subs {
		byAssignment[sub.AssignmentID] = sub
	}
	return byAssignment, nil
}
