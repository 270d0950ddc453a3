package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/course"
	"github.com/kymanzi/darasa/core/grades"
	"github.com/kymanzi/darasa/core/submission"
	"github.com/kymanzi/darasa/core/user"
	testutil "github.com/kymanzi/darasa/tests"
)

func Test_courseApi_assignments(t *testing.T) {
	instructor := testutil.CreateUser(t, usrRepo, "Prof D", "prof.d@test.cd", "", []string{user.RoleInstructor}, true)
	learner := testutil.CreateUser(t, usrRepo, "Std C", "std.c@test.cd", "", []string{user.RoleLearner}, true)
	stranger := testutil.CreateUser(t, usrRepo, "Std D", "std.d@test.cd", "", []string{user.RoleLearner}, true)
	dropout := testutil.CreateUser(t, usrRepo, "Std E", "std.e@test.cd", "", []string{user.RoleLearner}, true)

	crs := testutil.CreateCourse(t, courseRepo, instructor.ID, "Networks", course.StatusPublished)
	testutil.Enroll(t, courseRepo, crs.ID, learner.ID, course.EnrollmentActive)
	testutil.Enroll(t, courseRepo, crs.ID, dropout.ID, course.EnrollmentCancelled)

	visible := testutil.CreateAssignment(t, assignRepo, crs.ID, "Lab 1", time.Now().UTC().Add(time.Hour), 40, false, false, assignment.StatusPublished)
	testutil.CreateAssignment(t, assignRepo, crs.ID, "Hidden draft", time.Now().UTC().Add(time.Hour), 10, false, false, assignment.StatusDraft)

	token := getToken(t, learner)
	base := "/v1/courses/" + crs.ID

	t.Run("enrollment required", func(t *testing.T) {
		for name, tok := range map[string]string{"stranger": getToken(t, stranger), "cancelled": getToken(t, dropout)} {
			t.Run(name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodGet, base+"/assignments", tok)
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusForbidden {
					t.Fatalf("code = %v; want 403", rec.Code)
				}
				if e := decodeAppErr(t, rec.Body.Bytes()); e.Code != "NOT_ENROLLED" {
					t.Errorf("code = %v; want NOT_ENROLLED", e.Code)
				}
			})
		}
	})

	t.Run("learner role required", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodGet, path: base + "/assignments", token: getToken(t, instructor),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("drafts are hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/assignments", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list failed: %v %s", rec.Code, rec.Body.String())
		}
		var assignments []assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(assignments) != 1 || assignments[0].ID != visible.ID {
			t.Errorf("assignments = %+v; want only the published one", assignments)
		}
	})

	t.Run("detail carries the learner's submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, base+"/assignments/"+visible.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("detail failed: %v %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Assignment assignment.Assignment  `json:"assignment"`
			Submission *submission.Submission `json:"submission"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if res.Assignment.ID != visible.ID {
			t.Errorf("assignment = %+v; want %v", res.Assignment, visible.ID)
		}
		if res.Submission != nil {
			t.Errorf("submission = %+v; want none yet", res.Submission)
		}
	})
}

func Test_courseApi_submissions(t *testing.T) {
	instructor := testutil.CreateUser(t, usrRepo, "Prof E", "prof.e@test.cd", "", []string{user.RoleInstructor}, true)
	learner := testutil.CreateUser(t, usrRepo, "Std F", "std.f@test.cd", "", []string{user.RoleLearner}, true)

	crs := testutil.CreateCourse(t, courseRepo, instructor.ID, "Compilers", course.StatusPublished)
	testutil.Enroll(t, courseRepo, crs.ID, learner.ID, course.EnrollmentActive)
	a := testutil.CreateAssignment(t, assignRepo, crs.ID, "Parser lab", time.Now().UTC().Add(time.Hour), 60, false, true, assignment.StatusPublished)

	token := getToken(t, learner)
	path := "/v1/courses/" + crs.ID + "/assignments/" + a.ID + "/submissions"
	body := marshallObj(t, map[string]string{"content": "my parser"})

	t.Run("empty content rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token, marshallObj(t, map[string]string{"content": "  "}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400", rec.Code)
		}
	})

	var sub submission.Submission

	t.Run("submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %v %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if sub.Status != submission.StatusSubmitted || sub.IsLate {
			t.Errorf("sub = %+v; want an on-time submitted attempt", sub)
		}
	})

	t.Run("submit twice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("code = %v; want 409", rec.Code)
		}
		if e := decodeAppErr(t, rec.Body.Bytes()); e.Code != "ALREADY_SUBMITTED" {
			t.Errorf("code = %v; want ALREADY_SUBMITTED", e.Code)
		}
	})

	t.Run("resubmit before it is requested", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; want 400", rec.Code)
		}
		if e := decodeAppErr(t, rec.Body.Bytes()); e.Code != "NOT_RESUBMIT_REQUIRED" {
			t.Errorf("code = %v; want NOT_RESUBMIT_REQUIRED", e.Code)
		}
	})

	t.Run("resubmit after request", func(t *testing.T) {
		if _, err := subSvc.RequestResubmission(context.Background(), sub.ID, "redo"); err != nil {
			t.Fatalf("RequestResubmission(): %v", err)
		}

		req, rec := newAuthRequest(http.MethodPut, path, token, marshallObj(t, map[string]string{"content": "my parser, fixed"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("resubmit failed: %v %s", rec.Code, rec.Body.String())
		}
		var redo submission.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &redo); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if redo.Status != submission.StatusSubmitted || redo.Content != "my parser, fixed" {
			t.Errorf("redo = %+v; want the fresh attempt", redo)
		}
	})
}

func Test_courseApi_grades(t *testing.T) {
	instructor := testutil.CreateUser(t, usrRepo, "Prof F", "prof.f@test.cd", "", []string{user.RoleInstructor}, true)
	learner := testutil.CreateUser(t, usrRepo, "Std G", "std.g@test.cd", "", []string{user.RoleLearner}, true)

	crs := testutil.CreateCourse(t, courseRepo, instructor.ID, "Operating Systems", course.StatusPublished)
	testutil.Enroll(t, courseRepo, crs.ID, learner.ID, course.EnrollmentActive)

	a1 := testutil.CreateAssignment(t, assignRepo, crs.ID, "Scheduler lab", time.Now().UTC().Add(time.Hour), 40, false, false, assignment.StatusPublished)
	testutil.CreateAssignment(t, assignRepo, crs.ID, "Memory lab", time.Now().UTC().Add(2*time.Hour), 35, false, false, assignment.StatusPublished)

	ctx := context.Background()
	sub, err := subSvc.Submit(ctx, crs.ID, a1.ID, learner.ID, submission.NewSubmission{Content: "answers"})
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if _, err = subSvc.Grade(ctx, sub.ID, 90, "good"); err != nil {
		t.Fatalf("Grade(): %v", err)
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/grades", getToken(t, learner))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("grades failed: %v %s", rec.Code, rec.Body.String())
	}

	var cg grades.CourseGrade
	if err := json.Unmarshal(rec.Body.Bytes(), &cg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cg.CourseID != crs.ID || len(cg.Assignments) != 2 {
		t.Fatalf("cg = %+v; want both visible assignments", cg)
	}
	if !cg.TotalScore.Valid || cg.TotalScore.Float64 != 90 {
		t.Errorf("total = %+v; want 90 from the single graded assignment", cg.TotalScore)
	}
	for _, row := range cg.Assignments {
		want := grades.StatusNotSubmitted
		if row.AssignmentID == a1.ID {
			want = grades.StatusGraded
		}
		if row.Status != want {
			t.Errorf("row %s status = %v; want %v", row.Title, row.Status, want)
		}
	}
}
