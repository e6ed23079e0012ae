package alerts

import (
	"fmt"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// SpikeDetector flags artists whose coverage volume at least doubled
// against the immediately preceding equal-length window.
type SpikeDetector struct{}

func (d *SpikeDetector) Type() domain.AlertType {
	return domain.AlertSpike
}

func (d *SpikeDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	all := merged(recent, historical)
	windowStart := now.Add(-spikeLookback)
	previousStart := now.Add(-2 * spikeLookback)

	currentCounts, order := countByArtist(within(all, windowStart, now.Add(time.Second)))
	previousCounts, _ := countByArtist(within(all, previousStart, windowStart))

	var alerts []domain.Alert
	for _, artist := range order {
		count := currentCounts[artist]
		previous := previousCounts[artist]
		if count < spikeMinCount || previous == 0 || float64(count) < spikeRatio*float64(previous) {
			continue
		}

		severity := domain.SeverityWarning
		if count >= spikeCriticalCount {
			severity = domain.SeverityCritical
		}
		percentIncrease := float64(count-previous) / float64(previous) * 100

		alerts = append(alerts, domain.Alert{
			AlertType:  domain.AlertSpike,
			Severity:   severity,
			Title:      "Coverage spike detected",
			Message:    fmt.Sprintf("%s received %d coverage events in the last 24h, up from %d in the previous window", artist, count, previous),
			ArtistSlug: artist,
			Payload: map[string]any{
				"current_count":    count,
				"previous_count":   previous,
				"percent_increase": percentIncrease,
			},
			CreatedAt: now,
		})
	}
	return alerts
}
