package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core/access"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/grades"
	"github.com/kymanzi/darasa/core/submission"
	"github.com/kymanzi/darasa/core/user"
)

// courseApi serves the learner-facing course views: visible assignments,
// their own submissions and the aggregated grade sheet.
type courseApi struct {
	assignSvc *assignment.Service
	subSvc    *submission.Service
	gradesSvc *grades.Service
	usrSvc    *user.Service
	guard     access.Guard
	validate  *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		assignSvc: deps.AssignmentSvc,
		subSvc:    deps.SubmissionSvc,
		gradesSvc: deps.GradesSvc,
		usrSvc:    deps.UserSvc,
		guard:     deps.Guard,
		validate:  deps.Validate,
	}

	cg := g.Group("/courses/:courseId", jwt, learnerMiddleware())
	cg.GET("/assignments", api.queryAssignments)
	cg.GET("/assignments/:id", api.retrieveAssignment)
	cg.POST("/assignments/:id/submissions", api.submit)
	cg.PUT("/assignments/:id/submissions", api.resubmit)
	cg.GET("/grades", api.retrieveGrades)
}

// requireEnrollment checks the authed learner has an active enrollment in the
// course being addressed.
func (api *courseApi) requireEnrollment(ctx echo.Context) (user.User, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context user")
	}
	if err = api.guard.RequireActiveEnrollment(ctx.Request().Context(), ctx.Param("courseId"), usr.ID); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// Handlers

func (api *courseApi) queryAssignments(ctx echo.Context) error {
	if _, err := api.requireEnrollment(ctx); err != nil {
		return err
	}

	assignments, err := api.assignSvc.QueryVisibleByCourse(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *courseApi) retrieveAssignment(ctx echo.Context) error {
	usr, err := api.requireEnrollment(ctx)
	if err != nil {
		return err
	}

	a, err := api.assignSvc.GetForLearner(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("id"))
	if err != nil {
		return err
	}

	res := AssignmentDetailResponse{Assignment: a}
	if sub, err := api.subSvc.GetForLearner(ctx.Request().Context(), a.ID, usr.ID); err == nil {
		res.Submission = &sub
	} else if errors.Cause(err) != submission.ErrNotFound {
		return errors.Wrap(err, "getting submission")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) submit(ctx echo.Context) error {
	usr, err := api.requireEnrollment(ctx)
	if err != nil {
		return err
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.subSvc.Submit(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("id"), usr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *courseApi) resubmit(ctx echo.Context) error {
	usr, err := api.requireEnrollment(ctx)
	if err != nil {
		return err
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.subSvc.Resubmit(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("id"), usr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *courseApi) retrieveGrades(ctx echo.Context) error {
	usr, err := api.requireEnrollment(ctx)
	if err != nil {
		return err
	}

	grade, err := api.gradesSvc.CourseGrade(ctx.Request().Context(), ctx.Param("courseId"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade)
}

type AssignmentDetailResponse struct {
	Assignment assignment.Assignment  `json:"assignment"`
	Submission *submission.Submission `json:"submission"`
}
