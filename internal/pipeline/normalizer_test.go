package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

func testNormalizer(now time.Time) *Normalizer {
	n := NewNormalizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.now = func() time.Time { return now }
	return n
}

func TestNormalizer_NormalizeEvent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	n := testNormalizer(now)

	t.Run("Rejects Unknown Event Type", func(t *testing.T) {
		_, ok := n.NormalizeEvent(domain.RawEvent{
			EventType: "carrier_pigeon",
			Metadata:  map[string]any{},
		})
		if ok {
			t.Fatal("expected unknown event type to be rejected")
		}
	})

	t.Run("Rejects Missing Metadata", func(t *testing.T) {
		_, ok := n.NormalizeEvent(domain.RawEvent{
			EventType: "press_feature",
		})
		if ok {
			t.Fatal("expected event without metadata to be rejected")
		}
	})

	t.Run("Fills Missing Timestamp", func(t *testing.T) {
		event, ok := n.NormalizeEvent(domain.RawEvent{
			EventType:  "blog_post",
			ArtistSlug: "night-parade",
			Metadata:   map[string]any{"blogName": "Gold Flake Paint"},
		})
		if !ok {
			t.Fatal("expected event to be accepted")
		}
		if got := event.Metadata["timestamp"]; got != now.Format(time.RFC3339) {
			t.Errorf("expected timestamp %q, got %v", now.Format(time.RFC3339), got)
		}
	})

	t.Run("Keeps Existing Timestamp Alternatives", func(t *testing.T) {
		event, ok := n.NormalizeEvent(domain.RawEvent{
			EventType:  "playlist_add",
			ArtistSlug: "night-parade",
			Metadata:   map[string]any{"addedAt": "2026-07-30T09:00:00Z"},
		})
		if !ok {
			t.Fatal("expected event to be accepted")
		}
		if _, filled := event.Metadata["timestamp"]; filled {
			t.Error("expected no synthetic timestamp when addedAt is present")
		}
	})

	t.Run("Maps Snake Case Aliases", func(t *testing.T) {
		event, _ := n.NormalizeEvent(domain.RawEvent{
			EventType:  "playlist_add",
			ArtistSlug: "night-parade",
			Metadata: map[string]any{
				"follower_count":    "250000",
				"curator_influence": 0.9,
				"timestamp":         "2026-08-01T00:00:00Z",
			},
		})
		if _, stale := event.Metadata["follower_count"]; stale {
			t.Error("expected alias key to be removed")
		}
		if got := event.Metadata["followerCount"]; got != 250000.0 {
			t.Errorf("expected followerCount coerced to 250000, got %v", got)
		}
	})

	t.Run("Canonical Key Wins Over Alias", func(t *testing.T) {
		event, _ := n.NormalizeEvent(domain.RawEvent{
			EventType:  "press_feature",
			ArtistSlug: "night-parade",
			Metadata: map[string]any{
				"publicationTier": "tier1",
				"tier":            "tier3",
				"timestamp":       "2026-08-01T00:00:00Z",
			},
		})
		if got := event.Metadata["publicationTier"]; got != "tier1" {
			t.Errorf("expected canonical value to win, got %v", got)
		}
	})

	t.Run("Drops Unparsable Numeric Strings", func(t *testing.T) {
		event, _ := n.NormalizeEvent(domain.RawEvent{
			EventType:  "streaming_milestone",
			ArtistSlug: "night-parade",
			Metadata: map[string]any{
				"streamCount": "one million",
				"timestamp":   "2026-08-01T00:00:00Z",
			},
		})
		if _, present := event.Metadata["streamCount"]; present {
			t.Error("expected unparsable numeric value to be dropped")
		}
	})

	t.Run("Defaults Weight To One", func(t *testing.T) {
		event, _ := n.NormalizeEvent(domain.RawEvent{
			EventType:  "review",
			ArtistSlug: "night-parade",
			Metadata:   map[string]any{"timestamp": "2026-08-01T00:00:00Z"},
		})
		if event.Weight != 1.0 {
			t.Errorf("expected default weight 1.0, got %v", event.Weight)
		}
	})

	t.Run("Does Not Mutate Input Metadata", func(t *testing.T) {
		meta := map[string]any{"follower_count": 100}
		n.NormalizeEvent(domain.RawEvent{
			EventType:  "playlist_add",
			ArtistSlug: "night-parade",
			Metadata:   meta,
		})
		if _, ok := meta["follower_count"]; !ok {
			t.Error("expected the caller's metadata map to be left untouched")
		}
	})
}

func TestNormalizer_SceneDelta(t *testing.T) {
	n := testNormalizer(time.Now())

	cases := []struct {
		name      string
		oldPulse  float64
		newPulse  float64
		delta     float64
		direction string
	}{
		{"Rising Pulse", 40, 52, 12, "up"},
		{"Falling Pulse", 60, 55, -5, "down"},
		{"Unchanged Pulse Is Down", 50, 50, 0, "down"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, ok := n.NormalizeEvent(domain.RawEvent{
				EventType: "scene_pulse_change",
				SceneSlug: "berlin-techno",
				Metadata: map[string]any{
					"oldPulse":  tc.oldPulse,
					"newPulse":  tc.newPulse,
					"timestamp": "2026-08-01T00:00:00Z",
				},
			})
			if !ok {
				t.Fatal("expected event to be accepted")
			}
			if got := event.Metadata["delta"]; got != tc.delta {
				t.Errorf("expected delta %v, got %v", tc.delta, got)
			}
			if got := event.Metadata["direction"]; got != tc.direction {
				t.Errorf("expected direction %q, got %v", tc.direction, got)
			}
		})
	}
}

func TestNormalizer_NormalizeEvents(t *testing.T) {
	n := testNormalizer(time.Now())

	raws := []domain.RawEvent{
		{EventType: "press_feature", ArtistSlug: "a", Metadata: map[string]any{}},
		{EventType: "unknown_type", ArtistSlug: "b", Metadata: map[string]any{}},
		{EventType: "blog_post", ArtistSlug: "c"},
		{EventType: "review", ArtistSlug: "d", Metadata: map[string]any{}},
	}

	events := n.NormalizeEvents(raws)
	if len(events) != 2 {
		t.Fatalf("expected 2 surviving events, got %d", len(events))
	}
	if events[0].ArtistSlug != "a" || events[1].ArtistSlug != "d" {
		t.Errorf("expected input order preserved, got %v then %v", events[0].ArtistSlug, events[1].ArtistSlug)
	}
}
