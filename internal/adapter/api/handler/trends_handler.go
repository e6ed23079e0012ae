package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/trends"
)

// TrendsHandler serves windowed trend snapshots.
type TrendsHandler struct {
	events domain.EventStore
	logger *slog.Logger
}

// NewTrendsHandler creates the trends handler.
func NewTrendsHandler(events domain.EventStore, logger *slog.Logger) *TrendsHandler {
	return &TrendsHandler{
		events: events,
		logger: logger.With("component", "trends_handler"),
	}
}

// GetTrends computes trend snapshots for the requested window. The
// window defaults to 24h; computing trends needs events back to twice
// the window so the previous period is populated.
func (h *TrendsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	window := domain.TrendWindow(r.URL.Query().Get("window"))
	if window == "" {
		window = domain.Window24h
	}
	lookback, ok := window.Lookback()
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown trend window: "+string(window))
		return
	}

	now := time.Now().UTC()
	events, err := h.events.RecentEvents(r.Context(), now.Add(-2*lookback))
	if err != nil {
		h.logger.Error("failed to load events for trends", "error", err, "window", window)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	snapshots := trends.CalculateTrendsAt(window, events, now)
	respondJSON(w, http.StatusOK, map[string]any{
		"window": window,
		"trends": snapshots,
	})
}
