package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/roster"
	"github.com/tneregistro/portal/core/session"
	"github.com/tneregistro/portal/core/stats"
	"github.com/tneregistro/portal/services/tneapi"
)

const csrfField = "_csrf"

type (
	// Backend is what the portal needs from the delivery backend.
	Backend interface {
		roster.Client
		stats.Client
		Login(ctx context.Context, email string) (tneapi.LoginResult, error)
		DownloadReport(ctx context.Context) (*tneapi.Report, error)
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Backend    Backend
		Sessions   session.Provider
		Validate   *validator.Validate
		Translator ut.Translator
		Gatherer   prometheus.Gatherer
	}

	Server struct {
		*http.Server
		app      *echo.Echo
		deps     ServerDeps
		views    *viewCache
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	app := echo.New()
	app.HideBanner = true

	s := &Server{
		Server: &http.Server{
			Addr:    deps.Conf.Server.Address,
			Handler: app,
		},
		app:      app,
		deps:     deps,
		views:    newViewCache(deps.Conf.RosterViewTTL),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Debug = conf.Debug
	s.app.Renderer = mustNewRenderer()
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/health", s.health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	s.app.GET("/static/*", echo.WrapHandler(staticHandler()))

	// browser pages
	g := s.app.Group("",
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + csrfField,
			CookieName:     csrfField,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   conf.Session.Secure,
		}),
		sessionMiddleware(s.deps.Sessions),
	)

	registerAuthRoutes(g, s.deps.Backend, s.views, s.deps.Validate, s.deps.Translator, s.deps.Logger)
	registerRosterRoutes(g, s.deps.Backend, s.views, s.deps.Validate, s.deps.Translator, s.deps.Logger)
	registerStatsRoutes(g, s.deps.Backend, conf, s.deps.Logger)
}

// Start listens until Shutdown; any other listen failure is sent on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks main to stop the server gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"build":  s.deps.Conf.Build,
	})
}
