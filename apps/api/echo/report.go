package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/report"
)

type reportApi struct {
	svc report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt, adminMiddleware())
	rg.GET("/overview", api.overview)
	rg.GET("/sessions/:id/results.csv", api.sessionResults)
}

func (api *reportApi) overview(ctx echo.Context) error {
	ov, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building overview report")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *reportApi) sessionResults(ctx echo.Context) error {
	data, filename, err := api.svc.SessionCSV(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == conference.ErrSessionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "building session results CSV")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, "text/csv", data)
}
