package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// AnomalyDetector flags artists whose current coverage volume exceeds
// two standard deviations above their historical daily mean.
type AnomalyDetector struct{}

func (d *AnomalyDetector) Type() domain.AlertType {
	return domain.AlertAnomaly
}

func (d *AnomalyDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	windowStart := now.Add(-spikeLookback)
	currentCounts, order := countByArtist(within(recent, windowStart, now.Add(time.Second)))

	// Daily event counts per artist from the historical set.
	historyByArtist := make(map[string][]domain.PublishedEvent)
	for _, event := range historical {
		if event.ArtistSlug == "" {
			continue
		}
		historyByArtist[event.ArtistSlug] = append(historyByArtist[event.ArtistSlug], event)
	}

	var alerts []domain.Alert
	for _, artist := range order {
		events := historyByArtist[artist]
		if len(events) < anomalyMinHistory {
			continue
		}

		daily := dailyCounts(events)
		mean, stdDev := meanAndStdDev(daily)
		if stdDev == 0 {
			// z-score is undefined against a flat history.
			continue
		}

		current := float64(currentCounts[artist])
		threshold := mean + anomalySigmaFactor*stdDev
		if current <= threshold {
			continue
		}

		zScore := (current - mean) / stdDev
		alerts = append(alerts, domain.Alert{
			AlertType:  domain.AlertAnomaly,
			Severity:   domain.SeverityWarning,
			Title:      "Statistical coverage anomaly",
			Message:    fmt.Sprintf("%s has %.0f events today against a daily mean of %.1f (z=%.2f)", artist, current, mean, zScore),
			ArtistSlug: artist,
			Payload: map[string]any{
				"current_count": currentCounts[artist],
				"mean":          mean,
				"std_dev":       stdDev,
				"z_score":       zScore,
			},
			CreatedAt: now,
		})
	}
	return alerts
}

// dailyCounts buckets events into per-day counts (UTC days with at
// least one event).
func dailyCounts(events []domain.PublishedEvent) []float64 {
	buckets := make(map[string]int)
	for _, event := range events {
		day := event.CreatedAt.UTC().Format("2006-01-02")
		buckets[day]++
	}
	counts := make([]float64, 0, len(buckets))
	for _, count := range buckets {
		counts = append(counts, float64(count))
	}
	return counts
}

// meanAndStdDev returns the mean and population standard deviation.
func meanAndStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
