package alerts

import (
	"fmt"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// HighCredibilityDetector flags individual events whose weight marks
// them as high-credibility coverage.
type HighCredibilityDetector struct{}

func (d *HighCredibilityDetector) Type() domain.AlertType {
	return domain.AlertHighCred
}

func (d *HighCredibilityDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	var alerts []domain.Alert
	for _, event := range recent {
		if event.Weight < highCredThreshold {
			continue
		}

		severity := domain.SeverityWarning
		if event.Weight >= highCredCritical {
			severity = domain.SeverityCritical
		}

		alerts = append(alerts, domain.Alert{
			AlertType:  domain.AlertHighCred,
			Severity:   severity,
			Title:      "High-credibility coverage",
			Message:    fmt.Sprintf("%s event weighted %.2f", event.EventType, event.Weight),
			ArtistSlug: event.ArtistSlug,
			SceneSlug:  event.SceneSlug,
			EntitySlug: event.EntitySlug,
			Payload: map[string]any{
				"event_id": event.ID,
				"weight":   event.Weight,
			},
			CreatedAt: now,
		})
	}
	return alerts
}
