package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/achievement"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/auth"
	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/dashboard"
	"github.com/trezcool/pathwise/core/feedback"
	"github.com/trezcool/pathwise/core/message"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Inspector      *auth.Inspector
		AchievementSvc *achievement.Service
		MessageSvc     *message.Service
		CourseSvc      *course.Service
		FeedbackSvc    *feedback.Service
		DashboardSvc   *dashboard.Service
		AuditSvc       *audit.Service
		Validate       *validator.Validate
		Translator     ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	s.app.Use(originRequestIDMiddleware)
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	s.app.Use(metricsMiddleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/healthz", s.health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authed := authMiddleware(s.deps.Inspector, conf.Auth.CookieName)
	g := s.app.Group("/api", authed)

	registerAchievementAPI(g, s.deps.AchievementSvc)
	registerMessageAPI(g, s.deps.MessageSvc)
	registerCourseAPI(g, s.deps.CourseSvc)
	registerFeedbackAPI(g, s.deps.FeedbackSvc)
	registerAdminAPI(g.Group("/admin", adminMiddleware()), adminApi{
		achievementSvc: s.deps.AchievementSvc,
		dashboardSvc:   s.deps.DashboardSvc,
		auditSvc:       s.deps.AuditSvc,
		logger:         s.deps.Logger,
		maskForbidden:  conf.Admin.MaskForbidden,
	})
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"build":  s.deps.Conf.Build,
	})
}
