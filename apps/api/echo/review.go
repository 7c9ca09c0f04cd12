package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/review"
	"github.com/trezcool/confeval/core/user"
)

type reviewApi struct {
	svc      review.Service
	usrSvc   user.Service
	prjSvc   project.Service
	validate *validator.Validate
}

func registerReviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc review.Service, usrSvc user.Service, prjSvc project.Service, validate *validator.Validate) {
	api := reviewApi{
		svc:      svc,
		usrSvc:   usrSvc,
		prjSvc:   prjSvc,
		validate: validate,
	}

	cg := g.Group("/criteria", jwt)
	cg.GET("", api.queryCriteria)
	cg.POST("", api.createCriterion, adminMiddleware())
	cg.DELETE("", api.destroyCriteria, adminMiddleware())
	cg.PUT("/:id", api.updateCriterion, adminMiddleware())

	rg := g.Group("/reviews", jwt)
	rg.GET("", api.query)
	rg.POST("", api.create, reviewerMiddleware())

	dg := rg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, reviewerMiddleware())
}

// Criterion handlers

func (api *reviewApi) createCriterion(ctx echo.Context) error {
	var data review.NewCriterion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCriterion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crit, err := api.svc.CreateCriterion(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating criterion")
	}
	return ctx.JSON(http.StatusCreated, crit)
}

func (api *reviewApi) queryCriteria(ctx echo.Context) error {
	criteria, err := api.svc.QueryCriteria(ctx.Request().Context(), ctx.QueryParam("session_id"))
	if err != nil {
		return errors.Wrap(err, "querying criteria")
	}
	if criteria == nil {
		criteria = []review.Criterion{}
	}
	return ctx.JSON(http.StatusOK, criteria)
}

func (api *reviewApi) updateCriterion(ctx echo.Context) error {
	var data review.UpdateCriterion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCriterion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crit, err := api.svc.UpdateCriterion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == review.ErrCriterionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating criterion")
	}
	return ctx.JSON(http.StatusOK, crit)
}

func (api *reviewApi) destroyCriteria(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteCriteria(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting criteria")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Review handlers

func (api *reviewApi) create(ctx echo.Context) error {
	var data review.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rev, err := api.svc.Submit(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		switch errors.Cause(err) {
		case review.ErrNotAssigned, review.ErrAlreadyReviewed:
			return core.NewValidationError(errors.Cause(err))
		}
		return errors.Wrap(err, "submitting review")
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *reviewApi) query(ctx echo.Context) error {
	filter := &review.QueryFilter{
		ProjectID:  ctx.QueryParam("project_id"),
		ReviewerID: ctx.QueryParam("reviewer_id"),
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		// non-admins only see their own reviews, except project owners
		// who get the completed reviews of their project
		filter.ReviewerID = ctxUsr.ID
		if filter.ProjectID != "" && ctxUsr.IsStudent() {
			prj, err := api.prjSvc.GetByID(ctx.Request().Context(), filter.ProjectID)
			if err == nil && prj.StudentID == ctxUsr.ID {
				filter.ReviewerID = ""
				filter.CompletedOnly = true
			}
		}
	}

	reviews, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying reviews")
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return ctx.JSON(http.StatusOK, reviews)
}

func (api *reviewApi) retrieve(ctx echo.Context) error {
	rev, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == review.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding review by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || rev.ReviewerID == ctxUsr.ID || api.ownsReviewedProject(ctx, ctxUsr, rev)) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rev)
}

// ownsReviewedProject reports whether ctxUsr authored the reviewed project;
// owners only get to see completed reviews.
func (api *reviewApi) ownsReviewedProject(ctx echo.Context, ctxUsr user.User, rev review.Review) bool {
	if !rev.IsCompleted || !ctxUsr.IsStudent() {
		return false
	}
	prj, err := api.prjSvc.GetByID(ctx.Request().Context(), rev.ProjectID)
	return err == nil && prj.StudentID == ctxUsr.ID
}

func (api *reviewApi) update(ctx echo.Context) error {
	var data review.UpdateReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rev, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID, data)
	if err != nil {
		switch errors.Cause(err) {
		case review.ErrNotFound:
			return errHttpNotFound
		case review.ErrNotAssigned:
			return errHttpForbidden
		}
		return errors.Wrap(err, "updating review")
	}
	return ctx.JSON(http.StatusOK, rev)
}
