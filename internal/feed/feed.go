// Package feed filters published events against a user's subscription
// and annotates them for presentation.
package feed

import (
	"github.com/jmorand/scenepulse/internal/domain"
)

// highlightThreshold marks an event as highlighted in the feed.
const highlightThreshold = 0.7

// Entry is one annotated feed item.
type Entry struct {
	Event           domain.PublishedEvent `json:"event"`
	IsNew           bool                  `json:"is_new"`
	IsHighlighted   bool                  `json:"is_highlighted"`
	DisplayCategory string                `json:"display_category"`
	Icon            string                `json:"icon"`
}

type display struct {
	category string
	icon     string
}

var displayTable = map[domain.EventType]display{
	domain.EventPlaylistAdd:             {"Playlists", "🎧"},
	domain.EventPlaylistRemove:          {"Playlists", "🎧"},
	domain.EventPressFeature:            {"Press", "📰"},
	domain.EventBlogPost:                {"Press", "✍️"},
	domain.EventRadioSpin:               {"Radio", "📻"},
	domain.EventSocialMention:           {"Social", "💬"},
	domain.EventSocialFollowerMilestone: {"Social", "📈"},
	domain.EventStreamingMilestone:      {"Streaming", "▶️"},
	domain.EventChartEntry:              {"Charts", "🏆"},
	domain.EventVideoFeature:            {"Video", "🎬"},
	domain.EventInterview:               {"Press", "🎙️"},
	domain.EventReview:                  {"Press", "⭐"},
	domain.EventSyncPlacement:           {"Sync", "🎬"},
	domain.EventCollabAnnouncement:      {"Network", "🤝"},
	domain.EventShowAnnouncement:        {"Live", "🎤"},
	domain.EventScenePulseChange:        {"Scenes", "🌊"},
	domain.EventCoverageSpike:           {"Momentum", "🚀"},
	domain.EventCreativeBreakthrough:    {"Creative", "💡"},
	domain.EventMIGConnection:           {"Network", "🕸️"},
	domain.EventCampaignEvent:           {"Campaigns", "📣"},
}

const (
	fallbackCategory = "Other"
	fallbackIcon     = "🔔"
)

// ShouldIncludeEvent reports whether an event passes the subscription's
// filters. An empty list means no filter on that dimension; a non-empty
// list excludes events whose corresponding field is set but not a member.
func ShouldIncludeEvent(event domain.PublishedEvent, sub domain.Subscription) bool {
	if len(sub.SubscribedTypes) > 0 && !containsType(sub.SubscribedTypes, event.EventType) {
		return false
	}
	if len(sub.SubscribedArtists) > 0 && event.ArtistSlug != "" && !containsString(sub.SubscribedArtists, event.ArtistSlug) {
		return false
	}
	if len(sub.SubscribedScenes) > 0 && event.SceneSlug != "" && !containsString(sub.SubscribedScenes, event.SceneSlug) {
		return false
	}
	return true
}

// BuildFeed filters events through the subscription and annotates each
// surviving event. Events are new when created after the user's marker;
// without a marker nothing is new.
func BuildFeed(events []domain.PublishedEvent, sub domain.Subscription, marker *domain.Marker) []Entry {
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		if !ShouldIncludeEvent(event, sub) {
			continue
		}

		d, ok := displayTable[event.EventType]
		if !ok {
			d = display{fallbackCategory, fallbackIcon}
		}

		entries = append(entries, Entry{
			Event:           event,
			IsNew:           marker != nil && event.CreatedAt.After(marker.LastSeenAt),
			IsHighlighted:   event.Weight >= highlightThreshold,
			DisplayCategory: d.category,
			Icon:            d.icon,
		})
	}
	return entries
}

func containsType(list []domain.EventType, t domain.EventType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
