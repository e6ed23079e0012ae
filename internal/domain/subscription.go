package domain

import "time"

// Subscription holds a user's feed filters. All three lists have set
// semantics: mutations must de-duplicate before persisting, and an empty
// list means "no filter on that dimension".
type Subscription struct {
	UserID            string      `json:"user_id"`
	WorkspaceID       string      `json:"workspace_id,omitempty"`
	SubscribedTypes   []EventType `json:"subscribed_types"`
	SubscribedArtists []string    `json:"subscribed_artists"`
	SubscribedScenes  []string    `json:"subscribed_scenes"`
}

// Normalize de-duplicates the subscription lists in place, preserving
// first-occurrence order.
func (s *Subscription) Normalize() {
	s.SubscribedTypes = dedupeTypes(s.SubscribedTypes)
	s.SubscribedArtists = dedupeStrings(s.SubscribedArtists)
	s.SubscribedScenes = dedupeStrings(s.SubscribedScenes)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupeTypes(in []EventType) []EventType {
	seen := make(map[EventType]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Marker records the last time a user saw their feed. Events newer than
// the marker are classified as "new"; one marker exists per user.
type Marker struct {
	UserID     string    `json:"user_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
