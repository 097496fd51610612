package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoweb "github.com/tneregistro/portal/apps/web/echo"
	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/session"
	logsvc "github.com/tneregistro/portal/services/logger"
	"github.com/tneregistro/portal/services/tneapi"
	jwtsession "github.com/tneregistro/portal/storage/session/jwtcookie"
	memsession "github.com/tneregistro/portal/storage/session/inmem"
)

type RegistryResult struct {
	dig.Out
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newRegistry() RegistryResult {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	return RegistryResult{Registerer: reg, Gatherer: reg}
}

func newSessionProvider(conf *core.Config, logger core.Logger) session.Provider {
	switch conf.Session.Store {
	case core.SessionStoreMemory:
		return memsession.NewProvider(conf)
	case core.SessionStoreCookie:
	default:
		logger.Warn("unknown session store " + conf.Session.Store + "; using " + core.SessionStoreCookie)
	}
	return jwtsession.NewProvider(conf)
}

func newServerDeps(
	conf *core.Config,
	logger core.Logger,
	backend *tneapi.Client,
	sessions session.Provider,
	validate *validator.Validate,
	translator ut.Translator,
	gatherer prometheus.Gatherer,
) echoweb.ServerDeps {
	return echoweb.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Backend:    backend,
		Sessions:   sessions,
		Validate:   validate,
		Translator: translator,
		Gatherer:   gatherer,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newRegistry))
	must(c.Provide(tneapi.NewMetrics))
	must(c.Provide(tneapi.NewClient))
	must(c.Provide(newSessionProvider))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoweb.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
