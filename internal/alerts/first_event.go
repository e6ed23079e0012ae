package alerts

import (
	"fmt"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// FirstEventDetector flags the first coverage event of a given type an
// artist has ever received.
type FirstEventDetector struct{}

func (d *FirstEventDetector) Type() domain.AlertType {
	return domain.AlertFirstEvent
}

func (d *FirstEventDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	type pairKey struct {
		artist    string
		eventType domain.EventType
	}

	// ids of historical events per (artist, type); a recent event is a
	// first only when no *other* historical event shares its pair.
	history := make(map[pairKey]map[string]struct{})
	for _, event := range historical {
		if event.ArtistSlug == "" {
			continue
		}
		key := pairKey{event.ArtistSlug, event.EventType}
		if history[key] == nil {
			history[key] = make(map[string]struct{})
		}
		history[key][event.ID] = struct{}{}
	}

	var alerts []domain.Alert
	for _, event := range recent {
		if event.ArtistSlug == "" {
			continue
		}
		key := pairKey{event.ArtistSlug, event.EventType}

		prior := history[key]
		isFirst := len(prior) == 0
		if !isFirst && len(prior) == 1 {
			_, onlySelf := prior[event.ID]
			isFirst = onlySelf
		}
		if !isFirst {
			continue
		}

		alerts = append(alerts, domain.Alert{
			AlertType:  domain.AlertFirstEvent,
			Severity:   domain.SeverityInfo,
			Title:      "First coverage of its kind",
			Message:    fmt.Sprintf("%s received their first %s event", event.ArtistSlug, event.EventType),
			ArtistSlug: event.ArtistSlug,
			EntitySlug: event.EntitySlug,
			Payload: map[string]any{
				"event_id":   event.ID,
				"event_type": string(event.EventType),
			},
			CreatedAt: now,
		})
	}
	return alerts
}
