package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/access"
	"github.com/kymanzi/darasa/core/assignment"
	"github.com/kymanzi/darasa/core/submission"
	"github.com/kymanzi/darasa/core/user"
)

type assignmentApi struct {
	svc      *assignment.Service
	subSvc   *submission.Service
	usrSvc   *user.Service
	guard    access.Guard
	validate *validator.Validate
	clock    core.Clock
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		subSvc:   deps.SubmissionSvc,
		usrSvc:   deps.UserSvc,
		guard:    deps.Guard,
		validate: deps.Validate,
		clock:    deps.Clock,
	}

	ag := g.Group("/assignments", jwt, instructorMiddleware())
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.POST("/:id/publish", api.publish)
	ag.POST("/:id/close", api.close)
	ag.GET("/:id/submissions", api.querySubmissions)

	sg := g.Group("/submissions", jwt, instructorMiddleware())
	sg.PATCH("/:id/grade", api.grade)
}

// requireOwnership loads the assignment and checks the authed instructor owns
// its course.
func (api *assignmentApi) requireOwnership(ctx echo.Context, assignmentID string) (assignment.Assignment, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting context user")
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), assignmentID)
	if err != nil {
		return assignment.Assignment{}, err
	}
	if err = api.guard.RequireCourseOwnership(ctx.Request().Context(), a.CourseID, usr.ID); err != nil {
		return assignment.Assignment{}, err
	}
	return a, nil
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate, api.clock.Now()); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.guard.RequireCourseOwnership(ctx.Request().Context(), data.CourseID, usr.ID); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.requireOwnership(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	a, err := api.requireOwnership(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.validate, api.clock.Now()); err != nil {
		return err
	}

	a, err = api.svc.Update(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) publish(ctx echo.Context) error {
	a, err := api.requireOwnership(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	a, err = api.svc.Publish(ctx.Request().Context(), a.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) close(ctx echo.Context) error {
	a, err := api.requireOwnership(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	a, err = api.svc.Close(ctx.Request().Context(), a.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	a, err := api.requireOwnership(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	filter := submission.Filter(ctx.QueryParam("filter"))
	if filter != "" && !filter.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "filter", Error: "unknown filter"})
	}

	subs, err := api.subSvc.QueryByAssignment(ctx.Request().Context(), a.ID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.subSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if _, err = api.requireOwnership(ctx, sub.AssignmentID); err != nil {
		return err
	}

	switch data.Action {
	case submission.ActionGrade:
		sub, err = api.subSvc.Grade(ctx.Request().Context(), sub.ID, *data.Score, data.Feedback)
	case submission.ActionRequestResubmission:
		sub, err = api.subSvc.RequestResubmission(ctx.Request().Context(), sub.ID, data.Feedback)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
