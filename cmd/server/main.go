// Command server starts the IELTS writing coach HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	ai "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai/real"
	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ielts-writing-coach/internal/app"
	"github.com/fairyhunter13/ielts-writing-coach/internal/config"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/internal/essay"
	"github.com/fairyhunter13/ielts-writing-coach/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	lex, err := essay.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		slog.Error("lexicon load failed", slog.String("path", cfg.LexiconPath), slog.Any("error", err))
		os.Exit(1)
	}
	detector := essay.NewDetector(lex)

	// AI generator: the real client when a key is configured, otherwise the
	// stub, whose output always takes the rule-based fallbacks.
	var gen domain.TextGenerator = stub.New()
	if cfg.AIAPIKey != "" {
		gen = real.New(cfg)
		slog.Info("ai client initialized", slog.String("model", cfg.AIModel), slog.String("base_url", cfg.AIBaseURL))
	} else {
		slog.Warn("AI_API_KEY not set; analysis uses rule-based fallbacks only")
	}

	var rdb redis.UniversalClient
	if cfg.CacheEnabled() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		rdb = client
		gen = ai.NewCachedGenerator(gen, rdb, cfg.AICacheTTL, cfg.AIModel)
		slog.Info("ai response cache enabled", slog.Duration("ttl", cfg.AICacheTTL))
	}

	usage := ai.NewUsageCollector(cfg.AIModel, cfg.AICostPer1KTokens)
	analyzer := usecase.NewAnalyzer(gen, usage, detector, usecase.Options{CallTimeout: cfg.AICallTimeoutFor()})

	// Optional persistence
	var reportRepo domain.ReportRepository
	var dbPinger app.Pinger
	if cfg.PersistenceEnabled() {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.WaitReady(ctx, pool, cfg.DBConnectMaxElapsed); err != nil {
			slog.Error("db not ready", slog.Any("error", err))
			os.Exit(1)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			slog.Error("schema setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		reportRepo = postgres.NewReportRepo(pool)
		dbPinger = pool

		if cfg.ReportRetentionDays > 0 {
			cleanupSvc := postgres.NewCleanupService(pool, cfg.ReportRetentionDays)
			go cleanupSvc.RunPeriodic(ctx, cfg.ReportCleanupInterval)
			slog.Info("cleanup service started", slog.Int("retention_days", cfg.ReportRetentionDays), slog.Duration("interval", cfg.ReportCleanupInterval))
		}
	} else {
		slog.Info("DB_URL not set; reports are not persisted")
	}

	reports := usecase.NewReportService(analyzer, reportRepo)
	dbCheck, redisCheck := app.BuildReadinessChecks(dbPinger, rdb)
	srv := httpserver.NewServer(cfg, reports, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
	slog.Info("ai usage", slog.Any("usage", usage.Snapshot()))
}
