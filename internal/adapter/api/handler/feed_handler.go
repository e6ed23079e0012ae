package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/feed"
)

const feedLookback = 7 * 24 * time.Hour

// FeedHandler serves per-user feeds and subscription management.
type FeedHandler struct {
	events        domain.EventStore
	subscriptions domain.SubscriptionStore
	markers       domain.MarkerStore
	logger        *slog.Logger
}

// NewFeedHandler creates the feed handler.
func NewFeedHandler(events domain.EventStore, subscriptions domain.SubscriptionStore, markers domain.MarkerStore, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		events:        events,
		subscriptions: subscriptions,
		markers:       markers,
		logger:        logger.With("component", "feed_handler"),
	}
}

// GetFeed returns the user's filtered, annotated feed and advances
// their last-seen marker.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	sub, err := h.subscriptions.GetSubscription(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		// No subscription means no filters: the user sees everything.
		sub = &domain.Subscription{UserID: userID}
	} else if err != nil {
		h.logger.Error("failed to load subscription", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	marker, err := h.markers.GetMarker(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load feed marker", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now().UTC()
	events, err := h.events.RecentEvents(ctx, now.Add(-feedLookback))
	if err != nil {
		h.logger.Error("failed to load recent events", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	entries := feed.BuildFeed(events, *sub, marker)

	// The marker moves after the feed is built so this response still
	// reports what was new.
	if err := h.markers.Touch(ctx, userID, now); err != nil {
		h.logger.Error("failed to touch feed marker", "error", err, "user_id", userID)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"entries": entries,
	})
}

// GetSubscription returns the user's subscription.
func (h *FeedHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sub, err := h.subscriptions.GetSubscription(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// PutSubscription creates or replaces the user's subscription.
func (h *FeedHandler) PutSubscription(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var sub domain.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.UserID = userID
	sub.Normalize()

	for _, t := range sub.SubscribedTypes {
		if !t.Valid() {
			respondError(w, http.StatusBadRequest, "unknown event type: "+string(t))
			return
		}
	}

	if err := h.subscriptions.SaveSubscription(r.Context(), &sub); err != nil {
		h.logger.Error("failed to save subscription", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// DeleteSubscription removes the user's subscription.
func (h *FeedHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.subscriptions.DeleteSubscription(r.Context(), userID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
