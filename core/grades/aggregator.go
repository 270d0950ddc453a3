package grades

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/submission"
)

// feedbackSummaryLen caps the feedback excerpt shown in a grade row.
const feedbackSummaryLen = 100

// Status reflects a learner's standing on one assignment. It carries the
// submission statuses through, plus a synthetic value for assignments the
// learner never attempted.
type Status string

const (
	StatusNotSubmitted         Status = "not_submitted"
	StatusSubmitted            Status = Status(submission.StatusSubmitted)
	StatusGraded               Status = Status(submission.StatusGraded)
	StatusResubmissionRequired Status = Status(submission.StatusResubmissionRequired)
)

type (
	// AssignmentGrade is one row of a learner's course grade view.
	AssignmentGrade struct {
		AssignmentID    string      `json:"assignment_id"`
		Title           string      `json:"title"`
		Weight          int         `json:"weight"`
		Status          Status      `json:"status"`
		Score           null.Int    `json:"score"`
		IsLate          null.Bool   `json:"is_late"`
		FeedbackSummary null.String `json:"feedback_summary"`
	}

	// CourseGrade is a learner's aggregate standing in a course. TotalScore
	// is null until at least one visible assignment has been graded.
	CourseGrade struct {
		CourseID    string            `json:"course_id"`
		CourseTitle string            `json:"course_title"`
		TotalScore  null.Float64      `json:"total_score"`
		Assignments []AssignmentGrade `json:"assignments"`
	}

	Service struct {
		courseRepo course.Repository
		assignSvc  *assignment.Service
		subSvc     *submission.Service
	}
)

func NewService(courseRepo course.Repository, assignSvc *assignment.Service, subSvc *submission.Service) *Service {
	return &Service{
		courseRepo: courseRepo,
		assignSvc:  assignSvc,
		subSvc:     subSvc,
	}
}

// DeriveAssignmentGrade folds an assignment and the learner's submission (if
// any) into one grade row.
func DeriveAssignmentGrade(a assignment.Assignment, sub *submission.Submission) AssignmentGrade {
	g := AssignmentGrade{
		AssignmentID: a.ID,
		Title:        a.Title,
		Weight:       a.Weight,
		Status:       StatusNotSubmitted,
	}
	if sub == nil {
		return g
	}
	g.Status = Status(sub.Status)
	g.Score = sub.Score
	g.IsLate = null.BoolFrom(sub.IsLate)
	if sub.Feedback.Valid {
		g.FeedbackSummary = null.StringFrom(summarize(sub.Feedback.String))
	}
	return g
}

// ComputeTotalScore is the weighted average of graded rows only. Ungraded
// and unsubmitted assignments neither count nor dilute; with no graded row
// at all the result is null.
func ComputeTotalScore(rows []AssignmentGrade) null.Float64 {
	var weightedSum, weightTotal float64
	for _, g := range rows {
		if g.Status != StatusGraded || !g.Score.Valid {
			continue
		}
		w := float64(g.Weight)
		weightedSum += float64(g.Score.Int) * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return null.Float64{}
	}
	return null.Float64From(weightedSum / weightTotal)
}

// CourseGrade assembles a learner's grade view over the course's visible
// assignments.
func (svc *Service) CourseGrade(ctx context.Context, courseID, learnerID string) (CourseGrade, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return CourseGrade{}, err
	}

	assignments, err := svc.assignSvc.QueryVisibleByCourse(ctx, courseID)
	if err != nil {
		return CourseGrade{}, err
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
	}
	subs, err := svc.subSvc.QueryByLearner(ctx, learnerID, ids)
	if err != nil {
		return CourseGrade{}, err
	}

	rows := make([]AssignmentGrade, len(assignments))
	for i, a := range assignments {
		var sub *submission.Submission
		if s, ok := subs[a.ID]; ok {
			sub = &s
		}
		rows[i] = DeriveAssignmentGrade(a, sub)
	}

	return CourseGrade{
		CourseID:    crs.ID,
		CourseTitle: crs.Title,
		TotalScore:  ComputeTotalScore(rows),
		Assignments: rows,
	}, nil
}

// summarize truncates by runes so multi-byte feedback never splits mid-character.
func summarize(feedback string) string {
	runes := []rune(feedback)
	if len(runes) <= feedbackSummaryLen {
		return feedback
	}
	return string(runes[:feedbackSummaryLen])
}
