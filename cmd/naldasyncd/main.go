package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sellbridge/nalda-sync/internal/config"
	"github.com/sellbridge/nalda-sync/internal/license"
	"github.com/sellbridge/nalda-sync/internal/match"
	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/internal/nalda"
	"github.com/sellbridge/nalda-sync/internal/pipeline"
	"github.com/sellbridge/nalda-sync/internal/scheduler"
	"github.com/sellbridge/nalda-sync/internal/synclog"
	"github.com/sellbridge/nalda-sync/pkg/infra"
	"github.com/sellbridge/nalda-sync/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	defer infra.CloseLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("🔧 Initializing Nalda sync daemon...",
		"shop_domain", cfg.ShopDomain,
		"pid", os.Getpid(),
	)

	pool := connectWithBackoff(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		return // canceled during connect
	}
	defer pool.Close()

	sink, err := synclog.NewPostgresSink(ctx, pool)
	if err != nil {
		logger.Error("FATAL: failed to prepare sync log", "error", err)
		os.Exit(1)
	}

	scheduleStore, err := scheduler.NewPostgresScheduleStore(ctx, pool)
	if err != nil {
		logger.Error("FATAL: failed to prepare schedule store", "error", err)
		os.Exit(1)
	}

	// Dependency wiring. The commerce backend implementation is provided by
	// the shop platform adapter; the daemon is not usable without one.
	store := commerceAdapter()
	if store == nil {
		logger.Error("FATAL: no commerce backend adapter configured")
		os.Exit(1)
	}

	lic := license.KeyChecker{LicenseKey: cfg.LicenseKey}
	client := nalda.NewClient(cfg.APIBaseURL, cfg.UploadBaseURL, cfg.ShopDomain, cfg.LicenseKey, logger)
	matcher := match.NewMatcher(store)

	productExport := pipeline.NewProductExport(store, client, lic, sink, cfg.Credentials, logger)
	orderImport := pipeline.NewOrderImport(store, client, matcher, lic, sink, cfg.Credentials, cfg.ImportRange, logger)
	statusExport := pipeline.NewStatusExport(store, client, lic, sink, cfg.Credentials, logger)

	// The status export maintains its dirty bit from the store's order
	// mutation boundary.
	store.RegisterStatusListener(statusExport)

	sched := scheduler.New(scheduleStore, sink, lic, cfg.SchedulerTick, logger)
	register(ctx, sched, productExport, cfg.ProductExportInterval, cfg.ProductExportEnabled, logger)
	register(ctx, sched, orderImport, cfg.OrderImportInterval, cfg.OrderImportEnabled, logger)
	register(ctx, sched, statusExport, cfg.StatusExportInterval, cfg.StatusExportEnabled, logger)

	go startObservabilityServer(cfg.MetricsPort, logger)
	metrics.HealthStatus.Set(1)

	logger.Info("🚀 Nalda sync daemon started")
	sched.Run(ctx)

	metrics.HealthStatus.Set(0)
	logger.Info("✅ Shutdown complete")
}

func register(ctx context.Context, sched *scheduler.Scheduler, p pipeline.Pipeline, interval models.IntervalKey, enabled bool, logger *slog.Logger) {
	if err := sched.Register(ctx, p, interval, enabled); err != nil {
		logger.Error("Failed to register pipeline", "pipeline", p.Type(), "error", err)
	}
}

func connectWithBackoff(ctx context.Context, databaseURL string, logger *slog.Logger) *pgxpool.Pool {
	backoff := infra.NewBackoff(1*time.Second, 60*time.Second, 2.0)

	for {
		pool, err := pgxpool.New(ctx, databaseURL)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				logger.Info("Connected to Postgres")
				return pool
			}
			pool.Close()
		}

		wait := backoff.Next()
		logger.Error("Postgres connection failed, retrying", "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func startObservabilityServer(port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("NALDA SYNC ALIVE"))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("📊 Observability server online", "url", "http://localhost:"+port+"/metrics")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Observability server failed", "error", err)
	}
}
