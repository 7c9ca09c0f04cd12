package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/assign"
	"github.com/trezcool/confeval/core/conference"
	"github.com/trezcool/confeval/core/project"
	"github.com/trezcool/confeval/core/report"
	"github.com/trezcool/confeval/core/review"
	"github.com/trezcool/confeval/core/tag"
	"github.com/trezcool/confeval/core/user"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type (
	// ServerDeps is everything a Server needs to run.
	ServerDeps struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc   user.Service
		TagSvc    tag.Service
		ConfSvc   conference.Service
		PrjSvc    project.Service
		AssignSvc assign.Service
		RevSvc    review.Service
		ReportSvc report.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps ServerDeps
		app  *echo.Echo

		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	appJWTConfig.SigningKey = []byte(conf.SecretKey)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home(conf))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.Conf, s.deps.UserSvc, s.deps.Validate)
	registerTagAPI(v1, jwt, s.deps.TagSvc, s.deps.Validate)
	registerConferenceAPI(v1, jwt, s.deps.ConfSvc, s.deps.Validate)
	registerProjectAPI(v1, jwt, s.deps.PrjSvc, s.deps.UserSvc, s.deps.Validate)
	registerAssignmentAPI(v1, jwt, s.deps.AssignSvc)
	registerReviewAPI(v1, jwt, s.deps.RevSvc, s.deps.UserSvc, s.deps.PrjSvc, s.deps.Validate)
	registerReportAPI(v1, jwt, s.deps.ReportSvc)
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Address)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown initiates a graceful shutdown, as if a SIGTERM was received.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+conf.AppName+" API!")
	}
}
