package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core/tag"
)

type tagApi struct {
	svc      tag.Service
	validate *validator.Validate
}

func registerTagAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc tag.Service, validate *validator.Validate) {
	api := tagApi{
		svc:      svc,
		validate: validate,
	}

	tg := g.Group("/tags", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create, adminMiddleware())
	tg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func (api *tagApi) create(ctx echo.Context) error {
	var data tag.NewTag
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTag")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tag")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tagApi) query(ctx echo.Context) error {
	tags, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tags")
	}
	if tags == nil {
		tags = []tag.Tag{}
	}
	return ctx.JSON(http.StatusOK, tags)
}

func (api *tagApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == tag.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding tag by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tagApi) update(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == tag.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding tag by ID")
	}

	var data tag.UpdateTag
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTag")
	}
	if err := data.Validate(api.validate, t, api.svc); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating tag")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tagApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting tag")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tagApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tags")
	}
	return ctx.NoContent(http.StatusNoContent)
}
