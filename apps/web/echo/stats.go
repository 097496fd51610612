package echoweb

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
	"github.com/tneregistro/portal/core/stats"
)

const msgStatsLoad = "No se pudieron cargar los datos."

type statsPage struct {
	Error     string
	UpdatedAt string
	View      *stats.View
	Chart     stats.Chart
}

type statsApi struct {
	backend Backend
	loc     *time.Location
	logger  core.Logger
}

func registerStatsRoutes(g *echo.Group, backend Backend, conf *core.Config, logger core.Logger) {
	loc := conf.Location
	if loc == nil {
		loc = time.UTC
	}
	api := statsApi{
		backend: backend,
		loc:     loc,
		logger:  logger,
	}

	sg := g.Group(session.StatisticsPath, guardMiddleware(session.AdminRoles))
	sg.GET("", api.statistics)
	sg.GET("/reporte", api.report)
}

// Handlers

func (api *statsApi) statistics(ctx echo.Context) error {
	view := stats.NewView(api.backend)
	data := statsPage{
		UpdatedAt: time.Now().In(api.loc).Format("15:04:05"),
		View:      view,
	}
	if err := view.Mount(ctx.Request().Context()); err != nil {
		api.logger.Warn("loading statistics", err, getContextSession(ctx))
		data.Error = msgStatsLoad
	} else {
		data.Chart = view.Chart()
	}
	return ctx.Render(http.StatusOK, "stats", newPage(ctx, "Panel de Control TNE", data))
}

func (api *statsApi) report(ctx echo.Context) error {
	rep, err := api.backend.DownloadReport(ctx.Request().Context())
	if err != nil {
		api.logger.Warn("downloading report", err, getContextSession(ctx))
		return errReportFailed
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+rep.Filename+`"`)
	return ctx.Blob(http.StatusOK, rep.ContentType, rep.Data)
}
