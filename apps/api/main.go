package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/pathwise/apps/api/echo"
	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/achievement"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/auth"
	"github.com/trezcool/pathwise/core/course"
	"github.com/trezcool/pathwise/core/dashboard"
	"github.com/trezcool/pathwise/core/feedback"
	"github.com/trezcool/pathwise/core/message"
	"github.com/trezcool/pathwise/core/origin"
	emailsvc "github.com/trezcool/pathwise/services/email"
	logsvc "github.com/trezcool/pathwise/services/logger"
	"github.com/trezcool/pathwise/storage/database"
	inmemdb "github.com/trezcool/pathwise/storage/database/inmem"
	sqlxrepos "github.com/trezcool/pathwise/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up the audit trail
	var auditRepo audit.Repository
	if conf.Database.Engine != "" {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		auditRepo = sqlxrepos.NewAuditRepository(db)
	} else {
		logger.Warn("database.engine is not configured: the audit trail is kept in memory")
		auditRepo = inmemdb.NewAuditRepository()
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate, translator := core.NewValidator()
	inspector := auth.NewInspector(conf.Auth.JWTSecret)
	if !inspector.Verifies() {
		logger.Warn("auth.jwtSecret is not configured: token signatures are not verified, the backend must reject forged tokens")
	}

	backend := origin.NewClient(conf.Backend.URL, conf.Backend.Timeout)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("backend").Set(conf.Backend.URL)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			Inspector:      inspector,
			AchievementSvc: achievement.NewService(backend, validate),
			MessageSvc:     message.NewService(backend, validate),
			CourseSvc:      course.NewService(backend),
			FeedbackSvc:    feedback.NewService(backend, validate, mailSvc, conf.Mail.FeedbackRecipients),
			DashboardSvc:   dashboard.NewService(backend, conf.Backend.DashboardSections, logger),
			AuditSvc:       audit.NewService(auditRepo),
			Validate:       validate,
			Translator:     translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		return nil, err
	}
	return db, nil
}
