package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tneregistro/portal/core/session"
)

const (
	contextSessionKey = "session"
	contextStoreKey   = "sessionStore"
)

// sessionMiddleware binds the session store to the request and loads the current session.
func sessionMiddleware(p session.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			store := p.Store(ctx.Response(), ctx.Request())
			sess, _ := store.Load()
			ctx.Set(contextStoreKey, store)
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextStore(ctx echo.Context) session.Store {
	return ctx.Get(contextStoreKey).(session.Store)
}

// getContextSession returns the request's session; the zero Session when logged out.
func getContextSession(ctx echo.Context) session.Session {
	sess, _ := ctx.Get(contextSessionKey).(session.Session)
	return sess
}

// guardMiddleware runs session.Decide on every request. A nil requiredRoles admits any logged-in role.
func guardMiddleware(requiredRoles []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := getContextSession(ctx)
			d := session.Decide(sess.Role, requiredRoles, ctx.Request().URL.RequestURI())
			if d.Allow {
				return next(ctx)
			}
			// a role that is refused the landing page itself would bounce forever
			if d.RedirectTo == ctx.Path() {
				return errRoleNotAllowed
			}
			return ctx.Redirect(http.StatusSeeOther, d.Location())
		}
	}
}
