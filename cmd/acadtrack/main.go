package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/acadtrack/acadtrack/internal/analytics"
	"github.com/acadtrack/acadtrack/internal/app"
	"github.com/acadtrack/acadtrack/internal/attendance"
	"github.com/acadtrack/acadtrack/internal/audit"
	"github.com/acadtrack/acadtrack/internal/auth"
	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/feedback"
	"github.com/acadtrack/acadtrack/internal/marks"
	"github.com/acadtrack/acadtrack/internal/masterdata"
	"github.com/acadtrack/acadtrack/internal/observability"
	"github.com/acadtrack/acadtrack/internal/platform/cache"
	"github.com/acadtrack/acadtrack/internal/platform/db"
	"github.com/acadtrack/acadtrack/internal/shared"
	"github.com/acadtrack/acadtrack/internal/users"
	"github.com/acadtrack/acadtrack/internal/view"
	"github.com/acadtrack/acadtrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	seedPermissions := flag.Bool("seed-permissions", false, "insert missing role/permission rows and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	permissionStore := authz.NewStore(dbpool)
	if *seedPermissions {
		if err := permissionStore.Seed(ctx); err != nil {
			logger.Error("seed permissions", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("permission rows seeded")
		return
	}

	// Sessions live in Redis, so a dead Redis is fatal here.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "acadtrack_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	evaluator := authz.NewEvaluator(permissionStore)
	auditLogger := audit.NewLogger(dbpool)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	// Handlers receive the guard by value, so the denial recorder has to be
	// attached before any of them is constructed.
	guard := authz.Guard{
		Resolver:  authService,
		Evaluator: evaluator,
		Logger:    logger,
		Default:   cfg.GuardDefault(),
		Denials:   metrics,
	}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	settingsHandler := authz.NewSettingsHandler(logger, permissionStore, usersService, evaluator, auditLogger)

	masterdataRepo := masterdata.NewRepository(dbpool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService, guard)

	marksRepo := marks.NewRepository(dbpool)
	marksService := marks.NewService(marksRepo, masterdataService, evaluator, analyticsCache)
	marksHandler := marks.NewHandler(logger, marksService, guard, auditLogger)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, evaluator, analyticsCache)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, guard)

	feedbackRepo := feedback.NewRepository(dbpool)
	feedbackService := feedback.NewService(feedbackRepo, evaluator)
	feedbackHandler := feedback.NewHandler(logger, feedbackService, guard)

	analyticsRepo := analytics.NewRepository(dbpool)
	analyticsService := analytics.NewService(analyticsRepo, attendanceService, evaluator, analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, guard)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("analytics cache subscribe", slog.Any("error", err))
	}

	auditService := audit.NewService(dbpool)
	auditHandler := audit.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Templates:         templates,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Guard:             guard,
		Permissions:       permissionStore,
		AuthHandler:       authHandler,
		SettingsHandler:   settingsHandler,
		UsersHandler:      usersHandler,
		MasterDataHandler: masterdataHandler,
		MarksHandler:      marksHandler,
		AttendanceHandler: attendanceHandler,
		FeedbackHandler:   feedbackHandler,
		AnalyticsHandler:  analyticsHandler,
		AuditHandler:      auditHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
