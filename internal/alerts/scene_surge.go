package alerts

import (
	"fmt"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

// SceneSurgeDetector flags scenes whose coverage volume rose at least
// 1.5x against the immediately preceding equal-length window.
type SceneSurgeDetector struct{}

func (d *SceneSurgeDetector) Type() domain.AlertType {
	return domain.AlertSceneSurge
}

func (d *SceneSurgeDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	all := merged(recent, historical)
	windowStart := now.Add(-spikeLookback)
	previousStart := now.Add(-2 * spikeLookback)

	currentCounts, order := countByScene(within(all, windowStart, now.Add(time.Second)))
	previousCounts, _ := countByScene(within(all, previousStart, windowStart))

	var alerts []domain.Alert
	for _, scene := range order {
		count := currentCounts[scene]
		previous := previousCounts[scene]
		if count < surgeMinCount || previous == 0 || float64(count) < surgeRatio*float64(previous) {
			continue
		}

		severity := domain.SeverityInfo
		if count >= surgeWarningCount {
			severity = domain.SeverityWarning
		}

		alerts = append(alerts, domain.Alert{
			AlertType: domain.AlertSceneSurge,
			Severity:  severity,
			Title:     "Scene activity surge",
			Message:   fmt.Sprintf("scene %s generated %d coverage events in the last 24h, up from %d", scene, count, previous),
			SceneSlug: scene,
			Payload: map[string]any{
				"current_count":  count,
				"previous_count": previous,
			},
			CreatedAt: now,
		})
	}
	return alerts
}

func countByScene(events []domain.PublishedEvent) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, event := range events {
		if event.SceneSlug == "" {
			continue
		}
		if _, ok := counts[event.SceneSlug]; !ok {
			order = append(order, event.SceneSlug)
		}
		counts[event.SceneSlug]++
	}
	return counts, order
}
