package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/domain/mocks"
	"github.com/jmorand/scenepulse/internal/feed"
)

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func newFeedRouter(events *mocks.MockEventStore, subs *mocks.MockSubscriptionStore, markers *mocks.MockMarkerStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewFeedHandler(events, subs, markers, logger)

	r := chi.NewRouter()
	r.Route("/feed/{userID}", func(r chi.Router) {
		r.Get("/", h.GetFeed)
		r.Put("/subscription", h.PutSubscription)
	})
	return r
}

func TestFeedHandler_GetFeed(t *testing.T) {
	now := time.Now().UTC()
	recent := []domain.PublishedEvent{
		{
			NormalizedEvent: domain.NormalizedEvent{EventType: domain.EventChartEntry, ArtistSlug: "night-parade", Weight: 0.9},
			ID:              "e1",
			CreatedAt:       now.Add(-time.Minute),
		},
		{
			NormalizedEvent: domain.NormalizedEvent{EventType: domain.EventReview, ArtistSlug: "glass-harbor", Weight: 0.4},
			ID:              "e2",
			CreatedAt:       now.Add(-2 * time.Hour),
		},
	}

	t.Run("No Subscription Sees Everything And Touches Marker", func(t *testing.T) {
		events := &mocks.MockEventStore{RecentResult: recent}
		markers := &mocks.MockMarkerStore{}
		router := newFeedRouter(events, &mocks.MockSubscriptionStore{}, markers)

		req := httptest.NewRequest(http.MethodGet, "/feed/u1/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Entries []feed.Entry `json:"entries"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(resp.Entries))
		}
		if markers.Markers["u1"] == nil {
			t.Error("expected the user's marker to be touched")
		}
	})

	t.Run("Marker Marks Newer Events", func(t *testing.T) {
		events := &mocks.MockEventStore{RecentResult: recent}
		markers := &mocks.MockMarkerStore{Markers: map[string]*domain.Marker{
			"u1": {UserID: "u1", LastSeenAt: now.Add(-time.Hour)},
		}}
		router := newFeedRouter(events, &mocks.MockSubscriptionStore{}, markers)

		req := httptest.NewRequest(http.MethodGet, "/feed/u1/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var resp struct {
			Entries []feed.Entry `json:"entries"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Entries[0].IsNew {
			t.Error("expected the event after the marker to be new")
		}
		if resp.Entries[1].IsNew {
			t.Error("expected the event before the marker to be seen")
		}
	})

	t.Run("Subscription Filters The Feed", func(t *testing.T) {
		events := &mocks.MockEventStore{RecentResult: recent}
		subs := &mocks.MockSubscriptionStore{Subscriptions: map[string]*domain.Subscription{
			"u1": {UserID: "u1", SubscribedArtists: []string{"night-parade"}},
		}}
		router := newFeedRouter(events, subs, &mocks.MockMarkerStore{})

		req := httptest.NewRequest(http.MethodGet, "/feed/u1/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var resp struct {
			Entries []feed.Entry `json:"entries"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Entries) != 1 || resp.Entries[0].Event.ArtistSlug != "night-parade" {
			t.Errorf("unexpected entries: %+v", resp.Entries)
		}
	})
}

func TestFeedHandler_PutSubscription(t *testing.T) {
	t.Run("Rejects Unknown Event Type", func(t *testing.T) {
		router := newFeedRouter(&mocks.MockEventStore{}, &mocks.MockSubscriptionStore{}, &mocks.MockMarkerStore{})

		req := httptest.NewRequest(http.MethodPut, "/feed/u1/subscription",
			jsonBody(`{"subscribed_types": ["fax_blast"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Saves With User From URL", func(t *testing.T) {
		subs := &mocks.MockSubscriptionStore{}
		router := newFeedRouter(&mocks.MockEventStore{}, subs, &mocks.MockMarkerStore{})

		req := httptest.NewRequest(http.MethodPut, "/feed/u1/subscription",
			jsonBody(`{"subscribed_artists": ["night-parade", "night-parade"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		saved := subs.Subscriptions["u1"]
		if saved == nil {
			t.Fatal("expected subscription saved under u1")
		}
		if len(saved.SubscribedArtists) != 1 {
			t.Errorf("expected duplicate artists collapsed, got %v", saved.SubscribedArtists)
		}
	})
}
