package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core/conference"
)

type conferenceApi struct {
	svc      conference.Service
	validate *validator.Validate
}

func registerConferenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc conference.Service, validate *validator.Validate) {
	api := conferenceApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/conferences", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())

	cdg := cg.Group("/:id")
	cdg.GET("", api.retrieve)
	cdg.PUT("", api.update, adminMiddleware())
	cdg.DELETE("", api.destroy, adminMiddleware())
	cdg.GET("/sessions", api.querySessions)

	sg := g.Group("/sessions", jwt)
	sg.GET("", api.queryAllSessions)
	sg.POST("", api.createSession, adminMiddleware())

	sdg := sg.Group("/:id")
	sdg.GET("", api.retrieveSession)
	sdg.PUT("", api.updateSession, adminMiddleware())
	sdg.DELETE("", api.destroySession, adminMiddleware())
}

// Conference handlers

func (api *conferenceApi) create(ctx echo.Context) error {
	var data conference.NewConference
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConference")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating conference")
	}
	return ctx.JSON(http.StatusCreated, conf)
}

func (api *conferenceApi) query(ctx echo.Context) error {
	confs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying conferences")
	}
	if confs == nil {
		confs = []conference.Conference{}
	}
	return ctx.JSON(http.StatusOK, confs)
}

func (api *conferenceApi) retrieve(ctx echo.Context) error {
	conf, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding conference by ID")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *conferenceApi) update(ctx echo.Context) error {
	var data conference.UpdateConference
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConference")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == conference.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating conference")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *conferenceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting conference")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Session handlers

func (api *conferenceApi) createSession(ctx echo.Context) error {
	var data conference.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.CreateSession(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == conference.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *conferenceApi) querySessions(ctx echo.Context) error {
	sessions, err := api.svc.QuerySessions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []conference.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *conferenceApi) queryAllSessions(ctx echo.Context) error {
	sessions, err := api.svc.QuerySessions(ctx.Request().Context(), ctx.QueryParam("conference_id"))
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []conference.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *conferenceApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.svc.GetSessionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding session by ID")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *conferenceApi) updateSession(ctx echo.Context) error {
	var data conference.UpdateSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.UpdateSession(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		switch errors.Cause(err) {
		case conference.ErrSessionNotFound, conference.ErrNotFound:
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *conferenceApi) destroySession(ctx echo.Context) error {
	if err := api.svc.DeleteSessions(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
