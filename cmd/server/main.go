package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmorand/scenepulse/internal/adapter/api"
	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/adapter/realtime"
	"github.com/jmorand/scenepulse/internal/adapter/repository/postgres"
	redisrepo "github.com/jmorand/scenepulse/internal/adapter/repository/redis"
	"github.com/jmorand/scenepulse/internal/alerts"
	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/ingest"
	"github.com/jmorand/scenepulse/internal/pipeline"
	"github.com/jmorand/scenepulse/internal/pkg/config"
	"github.com/jmorand/scenepulse/internal/pkg/logger"

	_ "github.com/lib/pq" // Keep for postgres driver
)

const ruleCacheTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fileCfg, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		slog.Error("failed to load file config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewPipelineMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis Connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("could not connect to redis, feed markers and pub/sub degraded until it recovers", "error", err)
	}

	// --- Initialize Repositories ---
	eventStore := postgres.NewEventStore(db, logger)
	ruleStore := postgres.NewRuleStore(db, logger, ruleCacheTTL)
	alertStore := postgres.NewAlertStore(db, logger)
	subscriptionStore := postgres.NewSubscriptionStore(db, logger)
	markerStore := redisrepo.NewMarkerStore(redisClient, logger)

	// --- Initialize Realtime Transports ---
	sseBroker := realtime.NewSSEBroker(logger, m)
	transports := []domain.Broadcaster{
		sseBroker,
		realtime.NewRedisBroadcaster(redisClient, logger, m),
	}
	var kafkaBroadcaster *realtime.KafkaBroadcaster
	if len(cfg.KafkaBrokers) > 0 {
		kafkaBroadcaster = realtime.NewKafkaBroadcaster(cfg.KafkaBrokers, cfg.KafkaTopic, logger, m)
		transports = append(transports, kafkaBroadcaster)
	}
	broadcaster := realtime.NewFanout(transports...)

	// --- Initialize Pipeline ---
	sources := ingest.NewFromConfig(fileCfg.Sources, cfg.SourceTimeout, logger)
	table := pipeline.WeightTableFromConfig(fileCfg.Weights)

	var pipelineRules domain.RuleStore
	if fileCfg.Rules.Enabled {
		pipelineRules = ruleStore
	}
	pipe := pipeline.NewPipeline(sources, pipelineRules, eventStore, broadcaster, table, m, logger)

	// --- Initialize Alert Detection ---
	alertEngine := alerts.NewEngine(m, logger)
	alertRunner := alerts.NewRunner(alertEngine, eventStore, alertStore, cfg.AlertLookback, cfg.AlertHistory, logger)

	// --- Background Pipeline Loop ---
	go func() {
		ticker := time.NewTicker(cfg.PipelineInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := pipe.Run(ctx, cfg.WorkspaceID); err != nil {
					logger.Error("scheduled pipeline run failed", "error", err)
					continue
				}
				if _, err := alertRunner.RunCycle(ctx); err != nil {
					logger.Error("alert detection cycle failed", "error", err)
				}
			}
		}
	}()

	// --- Initialize API Server ---
	router := api.NewRouter(api.RouterDeps{
		Events:        eventStore,
		Rules:         ruleStore,
		Alerts:        alertStore,
		Subscriptions: subscriptionStore,
		Markers:       markerStore,
		Runner:        pipe,
		SSE:           sseBroker,
		WorkspaceID:   cfg.WorkspaceID,
	}, logger)

	apiServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	if kafkaBroadcaster != nil {
		if err := kafkaBroadcaster.Close(); err != nil {
			logger.Error("kafka writer close failed", "error", err)
		}
	}

	logger.Info("servers shut down gracefully")
}
