package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
)

const (
	msgLoginConnection = "Error de conexión. ¿Está encendido el backend?"
	msgLoginDenied     = "Acceso denegado. Verifica tu correo."
)

type (
	loginForm struct {
		Email string `form:"email" validate:"required,email"`
		Next  string `form:"next"`
	}

	loginPage struct {
		Email string
		Next  string
		Error string
	}
)

type authApi struct {
	backend    Backend
	views      *viewCache
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func registerAuthRoutes(
	g *echo.Group,
	backend Backend,
	views *viewCache,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) {
	api := authApi{
		backend:    backend,
		views:      views,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}

	g.GET(session.LoginPath, api.loginPage)
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) loginPage(ctx echo.Context) error {
	if sess := getContextSession(ctx); sess.LoggedIn() {
		return ctx.Redirect(http.StatusSeeOther, session.LandingPath(sess.Role))
	}
	data := loginPage{Next: ctx.QueryParam("next")}
	return ctx.Render(http.StatusOK, "login", newPage(ctx, "Ingreso", data))
}

func (api *authApi) login(ctx echo.Context) error {
	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding login form")
	}
	form.Email = core.CleanString(form.Email, true)

	if err := api.validate.Struct(form); err != nil {
		return api.loginFailed(ctx, form, core.TranslateValidation(err, api.translator).Error())
	}

	res, err := api.backend.Login(ctx.Request().Context(), form.Email)
	if err != nil {
		cause := errors.Cause(err)
		if _, ok := cause.(*core.RejectedError); !ok && cause != core.ErrConnection {
			api.logger.Warn("login failed", err, ctx.Request())
		}
		return api.loginFailed(ctx, form, core.UserMessage(err, msgLoginConnection, msgLoginDenied))
	}

	store := getContextStore(ctx)
	if prev, ok := store.Load(); ok {
		api.views.drop(prev.ID)
	}
	sess := session.New(res.Role, form.Email)
	if err = store.Save(sess); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.Redirect(http.StatusSeeOther, session.LandingPath(sess.Role))
}

func (api *authApi) loginFailed(ctx echo.Context, form loginForm, msg string) error {
	data := loginPage{Email: form.Email, Next: form.Next, Error: msg}
	return ctx.Render(http.StatusOK, "login", newPage(ctx, "Ingreso", data))
}

func (api *authApi) logout(ctx echo.Context) error {
	store := getContextStore(ctx)
	if sess, ok := store.Load(); ok {
		api.views.drop(sess.ID)
	}
	if err := store.Clear(); err != nil {
		return errors.Wrap(err, "clearing session")
	}
	return ctx.Redirect(http.StatusSeeOther, session.LoginPath)
}
