package pipeline

import (
	"log/slog"
	"math"

	"github.com/jmorand/scenepulse/internal/domain"
)

// fallbackWeight is used for event types without a weight configuration.
const fallbackWeight = 0.5

// WeightCaps bounds a computed weight. A nil bound is unbounded on that side.
type WeightCaps struct {
	Min *float64
	Max *float64
}

// WeightConfig drives the importance score for one event type.
type WeightConfig struct {
	BaseWeight  float64
	Multipliers map[string]float64
	Caps        *WeightCaps
}

// WeightTable maps event types to their weight configuration. The table
// is read-only after construction and safe to share across runs.
type WeightTable map[domain.EventType]WeightConfig

func capRange(min, max float64) *WeightCaps {
	return &WeightCaps{Min: &min, Max: &max}
}

// DefaultWeightTable returns the built-in configuration. playlist_remove
// and interview are intentionally unconfigured and fall back to the
// fixed default weight.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		domain.EventPlaylistAdd: {
			BaseWeight: 0.8,
			Multipliers: map[string]float64{
				"tier1":          1.5,
				"tier2":          1.25,
				"tier3":          1.0,
				"high_influence": 1.2,
			},
			Caps: capRange(0.1, 1.0),
		},
		domain.EventPressFeature: {
			BaseWeight: 0.7,
			Multipliers: map[string]float64{
				"tier1": 1.5,
				"tier2": 1.2,
				"tier3": 1.0,
			},
			Caps: capRange(0.1, 1.0),
		},
		domain.EventBlogPost: {
			BaseWeight: 0.5,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventRadioSpin: {
			BaseWeight: 0.6,
			Multipliers: map[string]float64{
				"national":   1.5,
				"regional":   1.2,
				"online":     1.0,
				"college":    0.9,
				"first_play": 1.3,
			},
			Caps: capRange(0.1, 1.0),
		},
		domain.EventSocialMention: {
			BaseWeight: 0.3,
			Caps:       capRange(0.05, 1.0),
		},
		domain.EventSocialFollowerMilestone: {
			BaseWeight: 0.5,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventStreamingMilestone: {
			BaseWeight: 0.6,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventChartEntry: {
			BaseWeight: 0.9,
			Caps:       capRange(0.2, 1.0),
		},
		domain.EventVideoFeature: {
			BaseWeight: 0.5,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventReview: {
			BaseWeight: 0.6,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventSyncPlacement: {
			BaseWeight: 0.85,
			Caps:       capRange(0.2, 1.0),
		},
		domain.EventCollabAnnouncement: {
			BaseWeight: 0.55,
			Caps:       capRange(0.1, 1.0),
		},
		domain.EventShowAnnouncement: {
			BaseWeight: 0.4,
			Caps:       capRange(0.05, 1.0),
		},
		domain.EventScenePulseChange: {
			BaseWeight: 0.5,
			Multipliers: map[string]float64{
				"large_delta":  1.6,
				"medium_delta": 1.3,
				"small_delta":  1.0,
			},
			Caps: capRange(0.1, 1.0),
		},
		domain.EventCoverageSpike: {
			BaseWeight: 0.75,
			Multipliers: map[string]float64{
				"massive":  1.6,
				"large":    1.4,
				"moderate": 1.2,
			},
			Caps: capRange(0.2, 1.0),
		},
		domain.EventCreativeBreakthrough: {
			BaseWeight: 0.65,
			Multipliers: map[string]float64{
				"high_score":   1.5,
				"medium_score": 1.2,
				"low_score":    1.0,
			},
			Caps: capRange(0.1, 1.0),
		},
		domain.EventMIGConnection: {
			BaseWeight: 0.45,
			Multipliers: map[string]float64{
				"high_confidence":   1.4,
				"medium_confidence": 1.15,
				"low_confidence":    0.9,
			},
			Caps: capRange(0.05, 1.0),
		},
		domain.EventCampaignEvent: {
			BaseWeight: 0.5,
			Multipliers: map[string]float64{
				"milestone":      1.5,
				"stage_complete": 1.2,
				"success":        1.3,
				"failed":         0.6,
			},
			Caps: capRange(0.05, 1.0),
		},
	}
}

// WeightEngine computes bounded importance scores from the weight table.
type WeightEngine struct {
	table  WeightTable
	logger *slog.Logger
}

// NewWeightEngine creates an engine over the given table. The table must
// not be mutated after construction.
func NewWeightEngine(table WeightTable, logger *slog.Logger) *WeightEngine {
	return &WeightEngine{
		table:  table,
		logger: logger.With("component", "weight_engine"),
	}
}

// CalculateEventWeight computes the importance score for one event:
// base weight, at most one type-specific multiplier rule, caps, then
// rounding to two decimals. Unknown types fall back to a fixed default.
func (e *WeightEngine) CalculateEventWeight(event domain.NormalizedEvent) float64 {
	config, ok := e.table[event.EventType]
	if !ok {
		e.logger.Warn("no weight config for event type, using fallback",
			"event_type", event.EventType, "fallback", fallbackWeight)
		return fallbackWeight
	}

	weight := config.BaseWeight
	weight = e.applyMultipliers(event, config, weight)

	if config.Caps != nil {
		if config.Caps.Min != nil && weight < *config.Caps.Min {
			weight = *config.Caps.Min
		}
		if config.Caps.Max != nil && weight > *config.Caps.Max {
			weight = *config.Caps.Max
		}
	}

	return round2(weight)
}

// ApplyWeights returns new events with recomputed weights. The input
// slice and its events are never mutated.
func (e *WeightEngine) ApplyWeights(events []domain.NormalizedEvent) []domain.NormalizedEvent {
	out := make([]domain.NormalizedEvent, len(events))
	for i, event := range events {
		weighted := event
		weighted.Weight = e.CalculateEventWeight(event)
		out[i] = weighted
	}
	return out
}

func (e *WeightEngine) applyMultipliers(event domain.NormalizedEvent, config WeightConfig, weight float64) float64 {
	meta := event.Metadata

	switch event.EventType {
	case domain.EventPlaylistAdd:
		// Follower tier always applies when followerCount is present; the
		// influence bonus stacks on top only above the threshold.
		if followers, ok := floatValue(meta, "followerCount"); ok {
			switch {
			case followers > 1_000_000:
				weight *= multiplier(config, "tier1")
			case followers > 100_000:
				weight *= multiplier(config, "tier2")
			default:
				weight *= multiplier(config, "tier3")
			}
		}
		if influence, ok := floatValue(meta, "curatorInfluence"); ok && influence > 0.7 {
			weight *= multiplier(config, "high_influence")
		}

	case domain.EventPressFeature:
		if tier, ok := stringValue(meta, "publicationTier"); ok {
			if m, found := config.Multipliers[tier]; found {
				weight *= m
			}
		}

	case domain.EventRadioSpin:
		if stationType, ok := stringValue(meta, "stationType"); ok {
			if m, found := config.Multipliers[stationType]; found {
				weight *= m
			}
		}
		if truthy(meta["firstPlay"]) {
			weight *= multiplier(config, "first_play")
		}

	case domain.EventScenePulseChange:
		delta, _ := floatValue(meta, "delta")
		switch {
		case math.Abs(delta) > 10:
			weight *= multiplier(config, "large_delta")
		case math.Abs(delta) > 5:
			weight *= multiplier(config, "medium_delta")
		default:
			weight *= multiplier(config, "small_delta")
		}

	case domain.EventCoverageSpike:
		if increase, ok := floatValue(meta, "percentIncrease"); ok {
			switch {
			case increase > 100:
				weight *= multiplier(config, "massive")
			case increase > 50:
				weight *= multiplier(config, "large")
			case increase > 25:
				weight *= multiplier(config, "moderate")
			}
		}

	case domain.EventCreativeBreakthrough:
		score, _ := floatValue(meta, "cmgScore")
		switch {
		case score > 0.8:
			weight *= multiplier(config, "high_score")
		case score > 0.5:
			weight *= multiplier(config, "medium_score")
		default:
			weight *= multiplier(config, "low_score")
		}

	case domain.EventMIGConnection:
		confidence, _ := floatValue(meta, "confidence")
		switch {
		case confidence > 0.8:
			weight *= multiplier(config, "high_confidence")
		case confidence > 0.5:
			weight *= multiplier(config, "medium_confidence")
		default:
			weight *= multiplier(config, "low_confidence")
		}

	case domain.EventCampaignEvent:
		// First match wins, in fixed priority order, across both the
		// action and result fields.
		action, _ := stringValue(meta, "action")
		result, _ := stringValue(meta, "result")
		for _, key := range []string{"milestone", "stage_complete", "success", "failed"} {
			if action == key || result == key {
				weight *= multiplier(config, key)
				break
			}
		}
	}

	return weight
}

// multiplier returns the named multiplier, or 1.0 when unconfigured.
func multiplier(config WeightConfig, name string) float64 {
	if m, ok := config.Multipliers[name]; ok {
		return m
	}
	return 1.0
}

func stringValue(meta map[string]any, key string) (string, bool) {
	s, ok := meta[key].(string)
	return s, ok
}

func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true" || value == "1" || value == "yes"
	case float64:
		return value != 0
	default:
		return false
	}
}

// round2 rounds half-up on the scaled integer to two decimal places.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
