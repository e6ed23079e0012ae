// Command pipeline runs ingestion passes without the HTTP surface. It
// is the batch entry point: run once for cron-style scheduling, or loop
// on an interval.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmorand/scenepulse/internal/adapter/realtime"
	"github.com/jmorand/scenepulse/internal/adapter/repository/postgres"
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
	once := flag.Bool("once", false, "Run a single pipeline pass and exit")
	interval := flag.Duration("interval", 0, "Override the configured pipeline interval")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *interval > 0 {
		cfg.PipelineInterval = *interval
	}

	fileCfg, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		slog.Error("failed to load file config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	eventStore := postgres.NewEventStore(db, logger)
	ruleStore := postgres.NewRuleStore(db, logger, ruleCacheTTL)
	alertStore := postgres.NewAlertStore(db, logger)

	broadcaster := realtime.NewRedisBroadcaster(redisClient, logger, nil)

	sources := ingest.NewFromConfig(fileCfg.Sources, cfg.SourceTimeout, logger)
	table := pipeline.WeightTableFromConfig(fileCfg.Weights)

	var pipelineRules domain.RuleStore
	if fileCfg.Rules.Enabled {
		pipelineRules = ruleStore
	}
	pipe := pipeline.NewPipeline(sources, pipelineRules, eventStore, broadcaster, table, nil, logger)

	alertEngine := alerts.NewEngine(nil, logger)
	alertRunner := alerts.NewRunner(alertEngine, eventStore, alertStore, cfg.AlertLookback, cfg.AlertHistory, logger)

	runPass := func() {
		if _, err := pipe.Run(ctx, cfg.WorkspaceID); err != nil {
			logger.Error("pipeline run failed", "error", err)
			return
		}
		if _, err := alertRunner.RunCycle(ctx); err != nil {
			logger.Error("alert detection cycle failed", "error", err)
		}
	}

	runPass()
	if *once {
		return
	}

	ticker := time.NewTicker(cfg.PipelineInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("pipeline loop stopped")
			return
		case <-ticker.C:
			runPass()
		}
	}
}
