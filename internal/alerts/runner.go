package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// Runner executes full detection cycles: load the recent and historical
// event sets, run every detector, persist the findings.
type Runner struct {
	engine   *Engine
	events   domain.EventStore
	store    domain.AlertStore
	lookback time.Duration
	history  time.Duration
	logger   *slog.Logger
}

// NewRunner wires a detection cycle. lookback bounds the "recent" set;
// history bounds how far back the baseline reaches.
func NewRunner(engine *Engine, events domain.EventStore, store domain.AlertStore, lookback, history time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		engine:   engine,
		events:   events,
		store:    store,
		lookback: lookback,
		history:  history,
		logger:   logger.With("component", "alert_runner"),
	}
}

// RunCycle executes one detection pass and returns the alerts it saved.
func (r *Runner) RunCycle(ctx context.Context) ([]domain.Alert, error) {
	now := time.Now().UTC()

	recent, err := r.events.RecentEvents(ctx, now.Add(-r.lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}
	historical, err := r.events.EventsBetween(ctx, now.Add(-r.history), now.Add(-r.lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load historical events: %w", err)
	}

	alerts := r.engine.DetectAllAt(recent, historical, now)
	if len(alerts) == 0 {
		r.logger.Debug("detection cycle found no alerts", "recent", len(recent), "historical", len(historical))
		return nil, nil
	}

	if err := r.store.SaveAlerts(ctx, alerts); err != nil {
		return nil, fmt.Errorf("failed to save alerts: %w", err)
	}

	r.logger.Info("detection cycle complete",
		"recent", len(recent),
		"historical", len(historical),
		"alerts", len(alerts),
	)
	return alerts, nil
}
