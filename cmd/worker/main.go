package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/acadtrack/acadtrack/internal/analytics"
	"github.com/acadtrack/acadtrack/internal/app"
	"github.com/acadtrack/acadtrack/internal/attendance"
	"github.com/acadtrack/acadtrack/internal/authz"
	"github.com/acadtrack/acadtrack/internal/platform/cache"
	"github.com/acadtrack/acadtrack/internal/platform/db"
	"github.com/acadtrack/acadtrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	permissionStore := authz.NewStore(pool)
	evaluator := authz.NewEvaluator(permissionStore)

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, evaluator, analyticsCache)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsService := analytics.NewService(analyticsRepo, attendanceService, evaluator, analyticsCache)

	mailer, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := mailer.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	riskScanJob := jobs.NewRiskScanJob(analyticsService, mailer, cfg.RiskDigestTo, logger)
	warmupJob := jobs.NewAnalyticsWarmupJob(analyticsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRiskScan, Handler: riskScanJob.Handle},
			{Type: jobs.TaskTypeAnalyticsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: jobs.NewAnalyticsWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: jobs.NewRiskScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
