// Package trends aggregates published coverage events into per-entity
// windowed snapshots. Velocity is events per hour within the window;
// acceleration compares the current window's velocity against the
// immediately preceding equal-length window.
package trends

import (
	"math"
	"sort"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// maxScore caps a snapshot's score.
const maxScore = 100.0

// entityKey identifies one aggregation group.
type entityKey struct {
	entityType domain.EntityType
	slug       string
}

type bucket struct {
	count       int
	weightTotal float64
}

// entityTypeForEvent maps an event type to the entity group its
// entity_slug contributes to. Types without a mapping contribute no
// entity group.
var entityTypeForEvent = map[domain.EventType]domain.EntityType{
	domain.EventPlaylistAdd:  domain.EntityPlaylist,
	domain.EventPressFeature: domain.EntityPublication,
	domain.EventBlogPost:     domain.EntityBlog,
	domain.EventRadioSpin:    domain.EntityStation,
}

// CalculateTrends aggregates events into snapshots for the given window,
// using the wall clock as the window's right edge.
func CalculateTrends(window domain.TrendWindow, events []domain.PublishedEvent) []domain.TrendSnapshot {
	return CalculateTrendsAt(window, events, time.Now().UTC())
}

// CalculateTrendsAt is CalculateTrends with an explicit evaluation time.
// Events inside [now-lookback, now] form the current window; events in
// the equal-length window before that feed acceleration and change.
// Result is sorted by score descending, stable for equal scores.
func CalculateTrendsAt(window domain.TrendWindow, events []domain.PublishedEvent, now time.Time) []domain.TrendSnapshot {
	lookback, ok := window.Lookback()
	if !ok {
		return nil
	}
	hours := window.Hours()
	windowStart := now.Add(-lookback)
	previousStart := now.Add(-2 * lookback)

	current := make(map[entityKey]*bucket)
	previous := make(map[entityKey]*bucket)
	var order []entityKey // insertion order of current-window keys

	for _, event := range events {
		inCurrent := !event.CreatedAt.Before(windowStart)
		inPrevious := !inCurrent && !event.CreatedAt.Before(previousStart)
		if !inCurrent && !inPrevious {
			continue
		}

		for _, key := range groupKeys(event) {
			if inCurrent {
				b, ok := current[key]
				if !ok {
					b = &bucket{}
					current[key] = b
					order = append(order, key)
				}
				b.count++
				b.weightTotal += event.Weight
			} else {
				b, ok := previous[key]
				if !ok {
					b = &bucket{}
					previous[key] = b
				}
				b.count++
				b.weightTotal += event.Weight
			}
		}
	}

	snapshots := make([]domain.TrendSnapshot, 0, len(order))
	for _, key := range order {
		b := current[key]
		velocity := round2(float64(b.count) / hours)
		avgWeight := b.weightTotal / float64(b.count)
		score := math.Min(maxScore, avgWeight*float64(b.count)*10)
		score = round2(score)

		prevVelocity := 0.0
		prevScore := 0.0
		if pb, ok := previous[key]; ok && pb.count > 0 {
			prevVelocity = float64(pb.count) / hours
			prevAvg := pb.weightTotal / float64(pb.count)
			prevScore = math.Min(maxScore, prevAvg*float64(pb.count)*10)
		}

		snapshots = append(snapshots, domain.TrendSnapshot{
			EntityType:   key.entityType,
			EntitySlug:   key.slug,
			Window:       window,
			Score:        score,
			Velocity:     velocity,
			Acceleration: round2(CalculateAcceleration(velocity, prevVelocity, hours)),
			Change:       round2(CalculateChange(score, prevScore)),
			EventCount:   b.count,
			Metadata: map[string]any{
				"avg_weight": round2(avgWeight),
			},
			CreatedAt: now,
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Score > snapshots[j].Score
	})
	return snapshots
}

// groupKeys returns every entity group a single event contributes to:
// its artist, its scene, and its typed entity. One event may appear in
// up to three groups.
func groupKeys(event domain.PublishedEvent) []entityKey {
	keys := make([]entityKey, 0, 3)
	if event.ArtistSlug != "" {
		keys = append(keys, entityKey{domain.EntityArtist, event.ArtistSlug})
	}
	if event.SceneSlug != "" {
		keys = append(keys, entityKey{domain.EntityScene, event.SceneSlug})
	}
	if event.EntitySlug != "" {
		if entityType, ok := entityTypeForEvent[event.EventType]; ok {
			keys = append(keys, entityKey{entityType, event.EntitySlug})
		}
	}
	return keys
}

// CalculateAcceleration is the rate of change of velocity between two
// windows, in events per hour per hour. Returns 0 for a zero-length window.
func CalculateAcceleration(currentVelocity, previousVelocity, hours float64) float64 {
	if hours == 0 {
		return 0
	}
	return (currentVelocity - previousVelocity) / hours
}

// CalculateChange is the percent change between two values. With no
// previous value it reports 100 for any current activity and 0 otherwise.
func CalculateChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
