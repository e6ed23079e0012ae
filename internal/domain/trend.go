package domain

import "time"

// TrendWindow is a fixed lookback duration for trend aggregation.
type TrendWindow string

const (
	Window1h  TrendWindow = "1h"
	Window6h  TrendWindow = "6h"
	Window24h TrendWindow = "24h"
	Window7d  TrendWindow = "7d"
	Window30d TrendWindow = "30d"
)

// Lookback returns the window's duration and whether the window is known.
func (w TrendWindow) Lookback() (time.Duration, bool) {
	switch w {
	case Window1h:
		return time.Hour, true
	case Window6h:
		return 6 * time.Hour, true
	case Window24h:
		return 24 * time.Hour, true
	case Window7d:
		return 7 * 24 * time.Hour, true
	case Window30d:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Hours returns the window length in hours, 0 for an unknown window.
func (w TrendWindow) Hours() float64 {
	d, ok := w.Lookback()
	if !ok {
		return 0
	}
	return d.Hours()
}

// EntityType classifies the subject of a trend snapshot.
type EntityType string

const (
	EntityArtist      EntityType = "artist"
	EntityScene       EntityType = "scene"
	EntityPlaylist    EntityType = "playlist"
	EntityPublication EntityType = "publication"
	EntityBlog        EntityType = "blog"
	EntityStation     EntityType = "station"
)

// TrendSnapshot is a windowed aggregate for one entity. Snapshots are
// recomputed fresh on every query, never mutated in place.
type TrendSnapshot struct {
	EntityType   EntityType     `json:"entity_type"`
	EntitySlug   string         `json:"entity_slug"`
	Window       TrendWindow    `json:"window"`
	Score        float64        `json:"score"`
	Velocity     float64        `json:"velocity"`
	Acceleration float64        `json:"acceleration"`
	Change       float64        `json:"change"`
	EventCount   int            `json:"event_count"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
