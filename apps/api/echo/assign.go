package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/conference"
)

type assignApi struct {
	svc assign.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assign.Service) {
	api := assignApi{svc: svc}

	ag := g.Group("/assignments", jwt, adminMiddleware())
	ag.GET("/projects", api.queryProjects)
	ag.GET("/reviewers", api.queryReviewers)
	ag.POST("/auto-assign", api.autoAssign)
	ag.DELETE("/clear", api.clear)
}

func (api *assignApi) queryProjects(ctx echo.Context) error {
	projects, err := api.svc.ListProjects(ctx.Request().Context(), ctx.QueryParam("session_id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "listing assignable projects")
	}
	if projects == nil {
		projects = []assign.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *assignApi) queryReviewers(ctx echo.Context) error {
	reviewers, err := api.svc.ListReviewers(ctx.Request().Context(), ctx.QueryParam("session_id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "listing eligible reviewers")
	}
	if reviewers == nil {
		reviewers = []assign.Reviewer{}
	}
	return ctx.JSON(http.StatusOK, reviewers)
}

func (api *assignApi) autoAssign(ctx echo.Context) error {
	var data AutoAssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AutoAssignRequest")
	}

	res, err := api.svc.AutoAssign(ctx.Request().Context(), assign.Options{
		SessionID:           data.SessionID,
		ReviewersPerProject: data.ReviewersPerProject,
		Preview:             data.Preview,
	})
	if err != nil {
		switch errors.Cause(err) {
		case conference.ErrSessionNotFound:
			return errHttpNotFound
		case assign.ErrNoReviewers:
			return core.NewValidationError(errors.Cause(err))
		}
		return errors.Wrap(err, "auto-assigning reviewers")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *assignApi) clear(ctx echo.Context) error {
	cleared, err := api.svc.ClearAssignments(ctx.Request().Context(), ctx.QueryParam("session_id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "clearing assignments")
	}
	return ctx.JSON(http.StatusOK, ClearAssignmentsResponse{Cleared: cleared})
}

type (
	// AutoAssignRequest binds from the body or from query params so the
	// admin UI can trigger a dry run with a bare POST.
	AutoAssignRequest struct {
		SessionID           string `json:"session_id" query:"session_id"`
		ReviewersPerProject int    `json:"reviewers_per_project" query:"reviewers_per_project"`
		Preview             bool   `json:"preview" query:"preview"`
	}

	ClearAssignmentsResponse struct {
		Cleared int `json:"cleared"`
	}
)
