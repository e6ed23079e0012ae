package domain

import (
	"time"
)

// EventType identifies the kind of coverage event. The set is closed:
// events carrying any other type string are rejected at normalization.
type EventType string

const (
	EventPlaylistAdd             EventType = "playlist_add"
	EventPlaylistRemove          EventType = "playlist_remove"
	EventPressFeature            EventType = "press_feature"
	EventBlogPost                EventType = "blog_post"
	EventRadioSpin               EventType = "radio_spin"
	EventSocialMention           EventType = "social_mention"
	EventSocialFollowerMilestone EventType = "social_follower_milestone"
	EventStreamingMilestone      EventType = "streaming_milestone"
	EventChartEntry              EventType = "chart_entry"
	EventVideoFeature            EventType = "video_feature"
	EventInterview               EventType = "interview"
	EventReview                  EventType = "review"
	EventSyncPlacement           EventType = "sync_placement"
	EventCollabAnnouncement      EventType = "collab_announcement"
	EventShowAnnouncement        EventType = "show_announcement"
	EventScenePulseChange        EventType = "scene_pulse_change"
	EventCoverageSpike           EventType = "coverage_spike"
	EventCreativeBreakthrough    EventType = "creative_breakthrough"
	EventMIGConnection           EventType = "mig_connection"
	EventCampaignEvent           EventType = "campaign_event"
)

var knownEventTypes = map[EventType]struct{}{
	EventPlaylistAdd:             {},
	EventPlaylistRemove:          {},
	EventPressFeature:            {},
	EventBlogPost:                {},
	EventRadioSpin:               {},
	EventSocialMention:           {},
	EventSocialFollowerMilestone: {},
	EventStreamingMilestone:      {},
	EventChartEntry:              {},
	EventVideoFeature:            {},
	EventInterview:               {},
	EventReview:                  {},
	EventSyncPlacement:           {},
	EventCollabAnnouncement:      {},
	EventShowAnnouncement:        {},
	EventScenePulseChange:        {},
	EventCoverageSpike:           {},
	EventCreativeBreakthrough:    {},
	EventMIGConnection:           {},
	EventCampaignEvent:           {},
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// RawEvent is an untrusted event as produced by an ingestion source.
// The event type may be invalid and the metadata may be absent entirely.
type RawEvent struct {
	EventType  string         `json:"event_type"`
	ArtistSlug string         `json:"artist_slug,omitempty"`
	EntitySlug string         `json:"entity_slug,omitempty"`
	SceneSlug  string         `json:"scene_slug,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Weight     *float64       `json:"weight,omitempty"`
}

// NormalizedEvent is a validated, canonicalized coverage event. An empty
// slug means the event carries no value for that dimension ("null").
type NormalizedEvent struct {
	EventType  EventType      `json:"event_type"`
	ArtistSlug string         `json:"artist_slug,omitempty"`
	EntitySlug string         `json:"entity_slug,omitempty"`
	SceneSlug  string         `json:"scene_slug,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Weight     float64        `json:"weight"`
}

// Signature returns the dedup key for the event. Absent slugs stringify
// to the literal "null" so that two events both missing a slug collide.
func (e NormalizedEvent) Signature() string {
	return string(e.EventType) + ":" + slugOrNull(e.ArtistSlug) + ":" + slugOrNull(e.EntitySlug)
}

func slugOrNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

// PublishedEvent is a NormalizedEvent after the publisher assigned an
// identity and creation time. Immutable once created.
type PublishedEvent struct {
	NormalizedEvent
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
