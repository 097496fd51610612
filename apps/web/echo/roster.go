package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/roster"
	"github.com/tneregistro/portal/core/session"
)

const (
	msgRosterLoad        = "Error al cargar los datos. Verifica el backend."
	msgDeliveryConn      = "Error de conexión."
	msgAlreadyDelivered  = "Esta TNE ya fue entregada."
	msgDeliveryFallback  = "Desconocido"
	msgDeliverySucceeded = "✅ ¡Entrega registrada para %s!"
)

type (
	deliveryForm struct {
		roster.DeliveryRequest
		Query string `form:"q"`
	}

	studentRow struct {
		Folio       string
		RUT         string
		DV          string
		Guia        string
		NumeroGuia  string
		Nombre      string
		Delivered   bool
		Responsable string
		Fecha       string
		CanDeliver  bool
	}

	dashboardPage struct {
		Query       string
		Responsable string
		Error       string
		Rows        []studentRow
	}
)

type rosterApi struct {
	backend    Backend
	views      *viewCache
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func registerRosterRoutes(
	g *echo.Group,
	backend Backend,
	views *viewCache,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	api := rosterApi{
		backend:    backend,
		views:      views,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}

	rg := g.Group(session.DashboardPath, guardMiddleware(session.AnyStaffRoles))
	rg.GET("", api.dashboard)
	rg.POST("/entregar", api.deliver)
}

// Handlers

// dashboard renders the roster. Plain navigation (no query) or `refresh` fetches the list again;
// a search only filters the list already held by the session's view.
func (api *rosterApi) dashboard(ctx echo.Context) error {
	sess := getContextSession(ctx)
	view, found := api.views.get(sess.ID, api.backend, api.validate, api.translator)

	data := dashboardPage{
		Query:       ctx.QueryParam("q"),
		Responsable: ctx.QueryParam("responsable"),
	}

	remount := !found || !view.Mounted() || ctx.QueryParam("refresh") != "" || len(ctx.QueryParams()) == 0
	if remount {
		if err := view.Mount(ctx.Request().Context()); err != nil {
			api.logger.Warn("loading roster", err, sess)
			data.Error = msgRosterLoad
		}
	}

	data.Rows = newStudentRows(view.Filter(data.Query))

	p := newPage(ctx, "Panel de Entregas TNE", data)
	p.Flash = popFlash(ctx)
	return ctx.Render(http.StatusOK, "dashboard", p)
}

// deliver registers a delivery then redirects back to the dashboard, keeping the search and responsable.
func (api *rosterApi) deliver(ctx echo.Context) error {
	var form deliveryForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding delivery form")
	}
	form.Responsable = core.CleanString(form.Responsable)
	form.Query = core.CleanString(form.Query)

	sess := getContextSession(ctx)
	view, _ := api.views.get(sess.ID, api.backend, api.validate, api.translator)

	updated, err := view.Register(ctx.Request().Context(), form.DeliveryRequest)
	switch cause := errors.Cause(err).(type) {
	case nil:
		setFlash(ctx, flashSuccess, fmt.Sprintf(msgDeliverySucceeded, updated.NombreCompleto.String()))
	case *core.ValidationError:
		setFlash(ctx, flashWarning, "⚠️ "+cause.Error())
	case *core.RejectedError:
		setFlash(ctx, flashError, "Error: "+core.UserMessage(err, msgDeliveryConn, msgDeliveryFallback))
	default:
		switch cause {
		case roster.ErrAlreadyDelivered:
			setFlash(ctx, flashWarning, msgAlreadyDelivered)
		case core.ErrConnection:
			setFlash(ctx, flashError, msgDeliveryConn)
		default:
			api.logger.Error("registering delivery", err, sess, ctx.Request())
			setFlash(ctx, flashError, "Error: "+msgDeliveryFallback)
		}
	}

	q := url.Values{}
	q.Set("q", form.Query)
	q.Set("responsable", form.Responsable)
	return ctx.Redirect(http.StatusSeeOther, session.DashboardPath+"?"+q.Encode())
}

func newStudentRows(records []roster.StudentRecord) []studentRow {
	title := cases.Title(language.Spanish)
	rows := make([]studentRow, 0, len(records))
	for _, r := range records {
		row := studentRow{
			Folio:      r.Folio.String(),
			RUT:        r.RUT.String(),
			DV:         r.DigitoVerificador.String(),
			Guia:       r.GuiaDespacho.String(),
			NumeroGuia: r.NumeroGuia.String(),
			Nombre:     r.NombreCompleto.String(),
			Delivered:  r.Delivered(),
			Fecha:      r.FechaEntregaDay(),
			CanDeliver: roster.CanDeliver(r),
		}
		if resp := r.Responsable.String(); resp != "" {
			row.Responsable = title.String(strings.ToLower(resp))
		}
		rows = append(rows, row)
	}
	return rows
}
