package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/pkg/config"
)

func testWeightEngine() *WeightEngine {
	return NewWeightEngine(DefaultWeightTable(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWeightEngine_CalculateEventWeight(t *testing.T) {
	e := testWeightEngine()

	t.Run("Press Tier Multiplier Capped At Max", func(t *testing.T) {
		// 0.7 * 1.5 = 1.05, capped to 1.0.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventPressFeature,
			Metadata:  map[string]any{"publicationTier": "tier1"},
		})
		if got != 1.0 {
			t.Errorf("expected capped weight 1.0, got %v", got)
		}
	})

	t.Run("Playlist Tier And Influence Stack", func(t *testing.T) {
		// 0.8 * 1.25 (tier2) * 1.2 (high influence) = 1.2, capped to 1.0.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventPlaylistAdd,
			Metadata: map[string]any{
				"followerCount":    500_000.0,
				"curatorInfluence": 0.85,
			},
		})
		if got != 1.0 {
			t.Errorf("expected stacked multipliers capped at 1.0, got %v", got)
		}
	})

	t.Run("Playlist Small Tier", func(t *testing.T) {
		// 0.8 * 1.0 (tier3), influence below threshold does not stack.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventPlaylistAdd,
			Metadata: map[string]any{
				"followerCount":    5_000.0,
				"curatorInfluence": 0.5,
			},
		})
		if got != 0.8 {
			t.Errorf("expected 0.8, got %v", got)
		}
	})

	t.Run("Unknown Type Falls Back", func(t *testing.T) {
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventPlaylistRemove,
			Metadata:  map[string]any{},
		})
		if got != fallbackWeight {
			t.Errorf("expected fallback weight %v, got %v", fallbackWeight, got)
		}
	})

	t.Run("Radio National First Play", func(t *testing.T) {
		// 0.6 * 1.5 * 1.3 = 1.17, capped to 1.0.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventRadioSpin,
			Metadata: map[string]any{
				"stationType": "national",
				"firstPlay":   true,
			},
		})
		if got != 1.0 {
			t.Errorf("expected 1.0, got %v", got)
		}
	})

	t.Run("Campaign First Match Wins", func(t *testing.T) {
		// milestone beats failed regardless of field: 0.5 * 1.5 = 0.75.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventCampaignEvent,
			Metadata: map[string]any{
				"action": "milestone",
				"result": "failed",
			},
		})
		if got != 0.75 {
			t.Errorf("expected 0.75, got %v", got)
		}
	})

	t.Run("Scene Pulse Large Delta", func(t *testing.T) {
		// 0.5 * 1.6 = 0.8.
		got := e.CalculateEventWeight(domain.NormalizedEvent{
			EventType: domain.EventScenePulseChange,
			Metadata:  map[string]any{"delta": -12.0},
		})
		if got != 0.8 {
			t.Errorf("expected 0.8 for |delta| > 10, got %v", got)
		}
	})

	t.Run("All Configured Types Within Caps", func(t *testing.T) {
		for eventType, config := range DefaultWeightTable() {
			got := e.CalculateEventWeight(domain.NormalizedEvent{
				EventType: eventType,
				Metadata:  map[string]any{},
			})
			if config.Caps != nil {
				if config.Caps.Min != nil && got < *config.Caps.Min {
					t.Errorf("%s: weight %v below min %v", eventType, got, *config.Caps.Min)
				}
				if config.Caps.Max != nil && got > *config.Caps.Max {
					t.Errorf("%s: weight %v above max %v", eventType, got, *config.Caps.Max)
				}
			}
		}
	})
}

func TestWeightEngine_ApplyWeights(t *testing.T) {
	e := testWeightEngine()

	events := []domain.NormalizedEvent{
		{EventType: domain.EventBlogPost, ArtistSlug: "a", Weight: 1.0, Metadata: map[string]any{}},
		{EventType: domain.EventChartEntry, ArtistSlug: "b", Weight: 1.0, Metadata: map[string]any{}},
	}

	weighted := e.ApplyWeights(events)

	if events[0].Weight != 1.0 || events[1].Weight != 1.0 {
		t.Error("expected input events to be left unmodified")
	}
	if weighted[0].Weight != 0.5 {
		t.Errorf("expected blog_post weight 0.5, got %v", weighted[0].Weight)
	}
	if weighted[1].Weight != 0.9 {
		t.Errorf("expected chart_entry weight 0.9, got %v", weighted[1].Weight)
	}
}

func TestWeightTableFromConfig(t *testing.T) {
	t.Run("Override Replaces Base Weight", func(t *testing.T) {
		table := WeightTableFromConfig(map[string]config.WeightEntry{
			"blog_post": {BaseWeight: 0.9},
		})
		if table[domain.EventBlogPost].BaseWeight != 0.9 {
			t.Errorf("expected overridden base weight 0.9, got %v", table[domain.EventBlogPost].BaseWeight)
		}
	})

	t.Run("Override Tightens Max Cap", func(t *testing.T) {
		max := 0.6
		table := WeightTableFromConfig(map[string]config.WeightEntry{
			"chart_entry": {MaxWeight: &max},
		})
		caps := table[domain.EventChartEntry].Caps
		if caps == nil || caps.Max == nil || *caps.Max != 0.6 {
			t.Fatalf("expected max cap 0.6, got %+v", caps)
		}
		if caps.Min == nil || *caps.Min != 0.2 {
			t.Errorf("expected built-in min cap 0.2 preserved, got %+v", caps.Min)
		}
	})

	t.Run("Unknown Type Ignored", func(t *testing.T) {
		table := WeightTableFromConfig(map[string]config.WeightEntry{
			"not_a_type": {BaseWeight: 0.9},
		})
		if _, ok := table[domain.EventType("not_a_type")]; ok {
			t.Error("expected unknown override key to be dropped")
		}
	})
}
