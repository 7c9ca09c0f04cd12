package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/user"
)

type projectApi struct {
	svc      project.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerProjectAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc project.Service, usrSvc user.Service, validate *validator.Validate) {
	api := projectApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	pg := g.Group("/projects", jwt)
	pg.GET("", api.query)
	pg.POST("", api.create, studentMiddleware())
	pg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/approve", api.approve, adminMiddleware())
	dg.POST("/reject", api.reject, adminMiddleware())
}

func (api *projectApi) create(ctx echo.Context) error {
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prj, err := api.svc.Submit(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting project")
	}
	return ctx.JSON(http.StatusCreated, prj)
}

func (api *projectApi) query(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.Project{})
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	switch {
	case ctxUsr.IsAdmin():
		// admins see everything
	case ctxUsr.IsReviewer():
		// reviewers only browse approved projects
		filter.Status = project.StatusApproved
	default:
		// students only see their own submissions
		filter.StudentID = ctxUsr.ID
	}

	projects, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	prj, err := api.getAccessibleProject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) update(ctx echo.Context) error {
	prj, err := api.getAccessibleProject(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || prj.StudentID == ctxUsr.ID) {
		return errHttpForbidden
	}

	var data project.UpdateProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}
	if !ctxUsr.IsAdmin() {
		// `PosterNumber` is assigned by admin
		if data.PosterNumber != "" {
			return errHttpForbidden
		}
	}
	if err := data.Validate(api.validate, prj); err != nil {
		return err
	}

	prj, err = api.svc.Update(ctx.Request().Context(), prj.ID, data)
	if err != nil {
		if errors.Cause(err) == project.ErrNotPending {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) approve(ctx echo.Context) error {
	prj, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "approving project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) reject(ctx echo.Context) error {
	prj, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "rejecting project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting projects")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getAccessibleProject fetches the project and enforces visibility:
// admins see all; students their own; reviewers approved projects.
func (api *projectApi) getAccessibleProject(ctx echo.Context) (project.Project, error) {
	prj, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return project.Project{}, errHttpNotFound
		}
		return project.Project{}, errors.Wrap(err, "finding project by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "getting context user")
	}
	switch {
	case ctxUsr.IsAdmin():
	case prj.StudentID == ctxUsr.ID:
	case ctxUsr.IsReviewer() && prj.Status == project.StatusApproved:
	default:
		return project.Project{}, errHttpNotFound
	}
	return prj, nil
}
