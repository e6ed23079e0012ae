package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmorand/scenepulse/internal/domain"
)

// AlertHandler serves alert listing, acknowledgement, and deletion.
type AlertHandler struct {
	alerts domain.AlertStore
	logger *slog.Logger
}

// NewAlertHandler creates the alert handler.
func NewAlertHandler(alerts domain.AlertStore, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: logger.With("component", "alert_handler"),
	}
}

// ListAlerts returns the newest alerts, up to ?limit (default 50).
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// AcknowledgeAlert marks one alert as seen.
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "alertID")
	if err := h.alerts.Acknowledge(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "acknowledged": true})
}

// DeleteAlert removes one alert.
func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "alertID")
	if err := h.alerts.DeleteAlert(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
