package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core"
)

var (
	errRoleNotAllowed = echo.NewHTTPError(http.StatusForbidden, "Tu rol no tiene acceso a este portal.")
	errReportFailed   = echo.NewHTTPError(http.StatusBadGateway, "No se pudo descargar el reporte.")
)

type errorPage struct {
	Code    int
	Message string
}

// newAppHTTPErrorHandler returns an echo.HTTPErrorHandler rendering our error page.
// Unknown routes redirect to the login page. signalShutdown is called whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			if origErr.Code == http.StatusNotFound || origErr.Code == http.StatusMethodNotAllowed {
				if !ctx.Response().Committed {
					err = ctx.Redirect(http.StatusSeeOther, "/")
					if err != nil {
						ctx.Echo().Logger.Error(err)
					}
				}
				return
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = "Ocurrió un error inesperado."

			msg := http.StatusText(http.StatusInternalServerError)
			logger.Error(msg, errors.Wrap(err, msg), getContextSession(ctx), ctx.Request())

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.Render(code, "error", newPage(ctx, "Error", errorPage{Code: code, Message: message}))
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
