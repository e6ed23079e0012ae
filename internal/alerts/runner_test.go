package alerts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/domain/mocks"
)

func TestRunner_RunCycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(nil, logger)

	t.Run("Saves Detected Alerts", func(t *testing.T) {
		events := &mocks.MockEventStore{
			RecentResult: []domain.PublishedEvent{
				event("e1", domain.EventChartEntry, "night-parade", "", 0.95, time.Now().UTC().Add(-time.Hour)),
			},
		}
		store := &mocks.MockAlertStore{}
		runner := NewRunner(engine, events, store, 24*time.Hour, 30*24*time.Hour, logger)

		alerts, err := runner.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(alerts) == 0 {
			t.Fatal("expected at least one alert")
		}
		if len(store.SavedAlerts) != len(alerts) {
			t.Errorf("expected %d saved alerts, got %d", len(alerts), len(store.SavedAlerts))
		}
	})

	t.Run("No Alerts Skips Save", func(t *testing.T) {
		events := &mocks.MockEventStore{}
		store := &mocks.MockAlertStore{}
		runner := NewRunner(engine, events, store, 24*time.Hour, 30*24*time.Hour, logger)

		alerts, err := runner.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if alerts != nil {
			t.Errorf("expected nil alerts, got %v", alerts)
		}
	})

	t.Run("Event Load Failure Surfaces", func(t *testing.T) {
		events := &mocks.MockEventStore{RecentErr: errors.New("postgres down")}
		runner := NewRunner(engine, events, &mocks.MockAlertStore{}, 24*time.Hour, 30*24*time.Hour, logger)

		if _, err := runner.RunCycle(context.Background()); err == nil {
			t.Fatal("expected an error when events cannot be loaded")
		}
	})

	t.Run("Save Failure Surfaces", func(t *testing.T) {
		events := &mocks.MockEventStore{
			RecentResult: []domain.PublishedEvent{
				event("e1", domain.EventChartEntry, "night-parade", "", 0.95, time.Now().UTC().Add(-time.Hour)),
			},
		}
		store := &mocks.MockAlertStore{SaveErr: errors.New("disk full")}
		runner := NewRunner(engine, events, store, 24*time.Hour, 30*24*time.Hour, logger)

		if _, err := runner.RunCycle(context.Background()); err == nil {
			t.Fatal("expected an error when alerts cannot be saved")
		}
	})
}
