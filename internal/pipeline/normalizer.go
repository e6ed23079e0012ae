package pipeline

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// timestampKeys is the fallback chain checked before stamping an event
// with the current time.
var timestampKeys = []string{"timestamp", "addedAt", "publishedAt"}

// metadataAliases maps accepted alias keys onto the canonical camelCase
// key per event type. Sources disagree on casing; normalization settles it.
var metadataAliases = map[domain.EventType]map[string]string{
	domain.EventPlaylistAdd: {
		"playlist_name":     "playlistName",
		"follower_count":    "followerCount",
		"followers":         "followerCount",
		"curator_influence": "curatorInfluence",
	},
	domain.EventPlaylistRemove: {
		"playlist_name": "playlistName",
	},
	domain.EventPressFeature: {
		"publication_name": "publicationName",
		"publication_tier": "publicationTier",
		"tier":             "publicationTier",
	},
	domain.EventBlogPost: {
		"blog_name": "blogName",
	},
	domain.EventRadioSpin: {
		"station_name": "stationName",
		"station_type": "stationType",
		"first_play":   "firstPlay",
		"show_name":    "showName",
	},
	domain.EventSocialMention: {
		"platform_name": "platform",
	},
	domain.EventSocialFollowerMilestone: {
		"follower_count": "followerCount",
	},
	domain.EventStreamingMilestone: {
		"stream_count": "streamCount",
	},
	domain.EventChartEntry: {
		"chart_name": "chartName",
	},
	domain.EventVideoFeature: {
		"channel_name": "channelName",
		"view_count":   "viewCount",
	},
	domain.EventScenePulseChange: {
		"old_pulse": "oldPulse",
		"new_pulse": "newPulse",
	},
	domain.EventCoverageSpike: {
		"percent_increase": "percentIncrease",
		"source_count":     "sourceCount",
	},
	domain.EventCreativeBreakthrough: {
		"cmg_score": "cmgScore",
	},
	domain.EventMIGConnection: {
		"connection_type": "connectionType",
	},
	domain.EventCampaignEvent: {
		"campaign_name": "campaignName",
	},
}

// numericKeys lists the metadata fields coerced to numbers per event
// type. Numeric-looking strings are parsed; unparsable values dropped.
var numericKeys = map[domain.EventType][]string{
	domain.EventPlaylistAdd:             {"followerCount", "curatorInfluence", "position"},
	domain.EventSocialFollowerMilestone: {"followerCount"},
	domain.EventSocialMention:           {"reach"},
	domain.EventStreamingMilestone:      {"streamCount"},
	domain.EventChartEntry:              {"position"},
	domain.EventVideoFeature:            {"viewCount"},
	domain.EventScenePulseChange:        {"oldPulse", "newPulse"},
	domain.EventCoverageSpike:           {"percentIncrease", "sourceCount"},
	domain.EventCreativeBreakthrough:    {"cmgScore"},
	domain.EventMIGConnection:           {"confidence"},
}

// Normalizer validates and canonicalizes raw ingested events. It is
// pure apart from logging and reading the clock.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With("component", "normalizer"),
		now:    time.Now,
	}
}

// NormalizeEvent canonicalizes one raw event. The second return value is
// false when the event is rejected: unknown event type or absent
// metadata. Rejections are logged, never fatal to a batch.
func (n *Normalizer) NormalizeEvent(raw domain.RawEvent) (domain.NormalizedEvent, bool) {
	eventType := domain.EventType(raw.EventType)
	if !eventType.Valid() {
		n.logger.Warn("dropping event with unknown type", "event_type", raw.EventType)
		return domain.NormalizedEvent{}, false
	}
	if raw.Metadata == nil {
		n.logger.Warn("dropping event without metadata", "event_type", raw.EventType)
		return domain.NormalizedEvent{}, false
	}

	weight := 1.0
	if raw.Weight != nil {
		weight = *raw.Weight
	}

	event := domain.NormalizedEvent{
		EventType:  eventType,
		ArtistSlug: raw.ArtistSlug,
		EntitySlug: raw.EntitySlug,
		SceneSlug:  raw.SceneSlug,
		Metadata:   n.normalizeMetadata(eventType, raw.Metadata),
		Weight:     weight,
	}
	return event, true
}

// NormalizeEvents canonicalizes a batch, dropping rejected events.
// Output order preserves input order.
func (n *Normalizer) NormalizeEvents(raws []domain.RawEvent) []domain.NormalizedEvent {
	events := make([]domain.NormalizedEvent, 0, len(raws))
	for _, raw := range raws {
		if event, ok := n.NormalizeEvent(raw); ok {
			events = append(events, event)
		}
	}
	return events
}

func (n *Normalizer) normalizeMetadata(eventType domain.EventType, in map[string]any) map[string]any {
	meta := make(map[string]any, len(in)+2)
	for k, v := range in {
		meta[k] = v
	}

	// Map accepted aliases onto canonical keys. Canonical wins when both
	// are present.
	for alias, canonical := range metadataAliases[eventType] {
		if v, ok := meta[alias]; ok {
			if _, exists := meta[canonical]; !exists {
				meta[canonical] = v
			}
			delete(meta, alias)
		}
	}

	for _, key := range numericKeys[eventType] {
		coerceNumber(meta, key)
	}

	if !hasTimestamp(meta) {
		meta["timestamp"] = n.now().UTC().Format(time.RFC3339)
	}

	if eventType == domain.EventScenePulseChange {
		deriveSceneDelta(meta)
	}

	return meta
}

func hasTimestamp(meta map[string]any) bool {
	for _, key := range timestampKeys {
		if _, ok := meta[key]; ok {
			return true
		}
	}
	return false
}

// coerceNumber converts a numeric-looking string value to float64 and
// drops unparsable values.
func coerceNumber(meta map[string]any, key string) {
	v, ok := meta[key]
	if !ok {
		return
	}
	switch value := v.(type) {
	case float64:
		// Already numeric (the JSON decoder's default).
	case int:
		meta[key] = float64(value)
	case int64:
		meta[key] = float64(value)
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			delete(meta, key)
			return
		}
		meta[key] = parsed
	default:
		delete(meta, key)
	}
}

// deriveSceneDelta fills delta and direction from the pulse pair. A
// delta of exactly 0 is treated as "down".
func deriveSceneDelta(meta map[string]any) {
	oldPulse, _ := floatValue(meta, "oldPulse")
	newPulse, _ := floatValue(meta, "newPulse")
	delta := newPulse - oldPulse
	meta["delta"] = delta
	if delta > 0 {
		meta["direction"] = "up"
	} else {
		meta["direction"] = "down"
	}
}

func floatValue(meta map[string]any, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
