package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/app"
	"github.com/surveydesk/backoffice/internal/console"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/observability"
	"github.com/surveydesk/backoffice/internal/platform/cache"
	"github.com/surveydesk/backoffice/internal/platform/db"
	"github.com/surveydesk/backoffice/internal/platform/resilience"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/users"
	"github.com/surveydesk/backoffice/jobs"
)

// guardedNames runs directory lookups through the record-store breaker.
type guardedNames struct {
	guard *resilience.Guard
	dir   *console.Directory
}

func (g guardedNames) EntityName(ctx context.Context, kind navigation.EntityKind, id string) (string, error) {
	return resilience.Fetch(ctx, g.guard, func(ctx context.Context) (string, error) {
		return g.dir.EntityName(ctx, kind, id)
	})
}

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
	metrics := observability.NewMetrics()

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, PingTimeout: 5 * time.Second})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	guard := resilience.NewGuard(resilience.Settings{
		Name:          "record-store",
		Timeout:       cfg.StoreTimeout,
		OnStateChange: metrics.SetBreakerState,
	}, logger)

	accountRepo := accounts.NewRepository(pool)
	directory := console.NewDirectory(users.NewRepository(pool), accountRepo, surveys.NewRepository(pool))
	nameCache := navigation.NewNameCache(redisClient, cfg.NameCacheTTL, nil, logger)

	resolveJob := jobs.NewNameResolveJob(guardedNames{guard: guard, dir: directory}, nameCache, logger)
	warmJob := jobs.NewAccountNamesJob(resilience.WrapLister(guard, accountRepo), nameCache, logger)

	warmTask, err := jobs.NewWarmAccountNamesTask(0)
	if err != nil {
		logger.Error("build warm task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Metrics:     metrics,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskResolveName, Handler: resolveJob.Handle},
			{Type: jobs.TaskWarmAccountNames, Handler: warmJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 */6 * * *", Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Unique(time.Hour)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
