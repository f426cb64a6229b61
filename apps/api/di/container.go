package di

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/sanggar/apps/api/echo"
	"github.com/trezcool/sanggar/core"
	"github.com/trezcool/sanggar/core/document"
	"github.com/trezcool/sanggar/services/converter/soffice"
	"github.com/trezcool/sanggar/services/converter/textpdf"
	logsvc "github.com/trezcool/sanggar/services/logger"
	"github.com/trezcool/sanggar/storage/uploads"
)

type BackendsParam struct {
	dig.In

	Primary  *soffice.Backend
	Fallback *textpdf.Backend
}

// NewLoggerFunc builds the logger of one process (API, ADMIN...).
type NewLoggerFunc func(conf *core.Config) core.Logger

func NewLogger(prefix string) NewLoggerFunc {
	return func(conf *core.Config) core.Logger {
		return logsvc.New(prefix+" : ", conf)
	}
}

func newDocumentFS(store *uploads.Store) document.FS {
	return store
}

func newFallbackBackend(conf *core.Config, logger core.Logger) *textpdf.Backend {
	return textpdf.NewBackend(textpdf.NewLayout(conf.Converter), logger)
}

func newPrimaryBackend(conf *core.Config, logger core.Logger) *soffice.Backend {
	return soffice.NewBackend(conf.Converter, logger)
}

// newChain orders the backends: the office suite first, the lossy text renderer last.
func newChain(p BackendsParam) document.Chain {
	return document.Chain{p.Primary, p.Fallback}
}

func newDocumentOptions(conf *core.Config) document.Options {
	return document.Options{InvalidateStale: conf.Converter.InvalidateStale}
}

// New returns a new dependency injection dig.Container.
// newConfig is core.NewConfig outside of tests.
func New(newConfig func() *core.Config, newLogger NewLoggerFunc) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(uploads.NewStore))
	must(c.Provide(newDocumentFS))
	must(c.Provide(newPrimaryBackend))
	must(c.Provide(newFallbackBackend))
	must(c.Provide(newChain))
	must(c.Provide(newDocumentOptions))
	must(c.Provide(document.NewService, dig.As(new(document.ServiceInterface))))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
