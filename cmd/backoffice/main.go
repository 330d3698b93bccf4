package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/surveydesk/backoffice/cmd/backoffice/cli"
	"github.com/surveydesk/backoffice/internal/accounts"
	"github.com/surveydesk/backoffice/internal/app"
	"github.com/surveydesk/backoffice/internal/console"
	"github.com/surveydesk/backoffice/internal/invoices"
	"github.com/surveydesk/backoffice/internal/ledger"
	"github.com/surveydesk/backoffice/internal/navigation"
	"github.com/surveydesk/backoffice/internal/observability"
	"github.com/surveydesk/backoffice/internal/platform/cache"
	"github.com/surveydesk/backoffice/internal/platform/db"
	"github.com/surveydesk/backoffice/internal/platform/resilience"
	"github.com/surveydesk/backoffice/internal/surveys"
	"github.com/surveydesk/backoffice/internal/users"
	"github.com/surveydesk/backoffice/jobs"
)

const usage = `usage:
  backoffice [serve]
  backoffice routes check [-manifest file] [-strict] [-json]
  backoffice routes trail -path /accounts/42 [-tab overview] [-name "Acme"] [-manifest file]
  backoffice jobs trigger warm-accounts | resolve-name <kind> <id>
  backoffice jobs stats
`

func main() {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "serve" {
		serve()
		return
	}
	os.Exit(runCommand(args))
}

func runCommand(args []string) int {
	switch {
	case len(args) >= 2 && args[0] == "routes" && args[1] == "check":
		fs := flag.NewFlagSet("routes check", flag.ContinueOnError)
		manifest := fs.String("manifest", "", "route manifest file (defaults to the embedded one)")
		strict := fs.Bool("strict", false, "fail when dynamic routes overlap")
		asJSON := fs.Bool("json", false, "emit JSON")
		if err := fs.Parse(args[2:]); err != nil {
			return 1
		}
		return cli.CheckCommand(cli.RoutesCheckOptions{ManifestPath: *manifest, Strict: *strict, JSONOutput: *asJSON})
	case len(args) >= 2 && args[0] == "routes" && args[1] == "trail":
		fs := flag.NewFlagSet("routes trail", flag.ContinueOnError)
		manifest := fs.String("manifest", "", "route manifest file (defaults to the embedded one)")
		path := fs.String("path", "", "console path to resolve")
		tab := fs.String("tab", "", "active tab key")
		name := fs.String("name", "", "entity display name")
		if err := fs.Parse(args[2:]); err != nil {
			return 1
		}
		return cli.TrailCommand(cli.TrailOptions{ManifestPath: *manifest, Path: *path, Tab: *tab, EntityName: *name})
	case len(args) >= 1 && args[0] == "jobs":
		return runJobs(args[1:])
	}
	fmt.Fprint(os.Stderr, usage)
	return 1
}

func runJobs(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	ops := cli.NewJobsCLI(redisOpts(cfg))
	defer func() { _ = ops.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch {
	case len(args) >= 2 && args[0] == "trigger":
		info, err := ops.Trigger(ctx, args[1], args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case len(args) == 1 && args[0] == "stats":
		stats, err := ops.InspectQueue()
		if err != nil {
			fmt.Fprintf(os.Stderr, "stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return 0
	}
	fmt.Fprint(os.Stderr, usage)
	return 1
}

func redisOpts(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}

func serve() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, PingTimeout: 5 * time.Second})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.Warn("redis unavailable, entity names disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	resolver, err := navigation.DefaultResolver()
	if err != nil {
		logger.Error("load route manifest", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.IsDevelopment() {
		for _, a := range resolver.Table().Ambiguities() {
			logger.Debug("overlapping routes", slog.String("winner", a.Winner), slog.String("shadow", a.Shadow))
		}
	}

	var postings ledger.Source = ledger.NewRepository(dbpool)
	if cfg.LedgerSource == app.LedgerSourceSimulated {
		postings = ledger.NewSimulatedStore(ledger.Simulator{
			Seed:   cfg.LedgerSeed,
			Start:  cfg.LedgerStartOrDefault(time.Now()),
			Months: cfg.LedgerMonths,
		})
	}

	guard := resilience.NewGuard(resilience.Settings{
		Name:          "record-store",
		Timeout:       cfg.StoreTimeout,
		OnStateChange: metrics.SetBreakerState,
	}, logger)

	var nameCache *navigation.NameCache
	var jobHandler *jobs.Handler
	if redisClient != nil {
		jobClient := jobs.NewClient(redisOpts(cfg))
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		nameCache = navigation.NewNameCache(redisClient, cfg.NameCacheTTL, jobClient, logger)

		inspector := asynq.NewInspector(redisOpts(cfg))
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	consoleHandler := console.NewHandler(console.HandlerParams{
		Logger:      logger,
		Users:       users.NewRepository(dbpool),
		Accounts:    accounts.NewRepository(dbpool),
		Surveys:     surveys.NewRepository(dbpool),
		Invoices:    invoices.NewRepository(dbpool),
		Ledger:      postings,
		Resolver:    resolver,
		Names:       nameCache,
		Guard:       guard,
		Metrics:     metrics,
		MaxPageSize: cfg.MaxPageSize,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		ConsoleHandler: consoleHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("ledger_source", cfg.LedgerSource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
