// Package alerts runs independent detectors over recent and historical
// published events. Each detector is pure given its inputs; the engine
// runs them concurrently and concatenates their findings, isolating any
// single detector's failure from the others.
package alerts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/domain"
)

// Detection thresholds. Fixed constants, not workspace-tunable.
const (
	spikeLookback      = 24 * time.Hour
	spikeMinCount      = 5
	spikeCriticalCount = 10
	spikeRatio         = 2.0
	surgeMinCount      = 10
	surgeWarningCount  = 20
	surgeRatio         = 1.5
	highCredThreshold  = 0.8
	highCredCritical   = 0.9
	anomalyMinHistory  = 10
	anomalySigmaFactor = 2.0
)

// Detector evaluates one alert rule over the event sets. now is the
// right edge of the recent window.
type Detector interface {
	Type() domain.AlertType
	Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert
}

// Engine coordinates detector evaluation.
type Engine struct {
	detectors []Detector
	metrics   *metrics.PipelineMetrics
	logger    *slog.Logger
}

// NewEngine creates an engine with the full detector set. m may be nil.
func NewEngine(m *metrics.PipelineMetrics, logger *slog.Logger) *Engine {
	return &Engine{
		detectors: []Detector{
			&SpikeDetector{},
			&FirstEventDetector{},
			&HighCredibilityDetector{},
			&SceneSurgeDetector{},
			&AnomalyDetector{},
		},
		metrics: m,
		logger:  logger.With("component", "alert_engine"),
	}
}

// DetectAll runs every detector concurrently and concatenates their
// alerts. A panic in one detector is recovered and logged; the other
// detectors' output is unaffected.
func (e *Engine) DetectAll(recent, historical []domain.PublishedEvent) []domain.Alert {
	return e.DetectAllAt(recent, historical, time.Now().UTC())
}

// DetectAllAt is DetectAll with an explicit evaluation time.
func (e *Engine) DetectAllAt(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	results := make([][]domain.Alert, len(e.detectors))

	var wg sync.WaitGroup
	for i, detector := range e.detectors {
		wg.Add(1)
		go func(i int, detector Detector) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("detector panicked, skipping its output",
						"detector", detector.Type(), "panic", r)
				}
			}()
			results[i] = detector.Detect(recent, historical, now)
		}(i, detector)
	}
	wg.Wait()

	var alerts []domain.Alert
	for i, found := range results {
		if len(found) > 0 && e.metrics != nil {
			e.metrics.AlertsTotal.WithLabelValues(string(e.detectors[i].Type())).Add(float64(len(found)))
		}
		alerts = append(alerts, found...)
	}
	return alerts
}

// countByArtist buckets events by artist slug, skipping artist-less
// events, and returns the counts plus first-seen artist order.
func countByArtist(events []domain.PublishedEvent) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, event := range events {
		if event.ArtistSlug == "" {
			continue
		}
		if _, ok := counts[event.ArtistSlug]; !ok {
			order = append(order, event.ArtistSlug)
		}
		counts[event.ArtistSlug]++
	}
	return counts, order
}

// within filters events to created_at in [from, to).
func within(events []domain.PublishedEvent, from, to time.Time) []domain.PublishedEvent {
	out := make([]domain.PublishedEvent, 0, len(events))
	for _, event := range events {
		if !event.CreatedAt.Before(from) && event.CreatedAt.Before(to) {
			out = append(out, event)
		}
	}
	return out
}

// merged concatenates the recent and historical sets so window bucketing
// can span both without caring which side an event arrived on.
func merged(recent, historical []domain.PublishedEvent) []domain.PublishedEvent {
	out := make([]domain.PublishedEvent, 0, len(recent)+len(historical))
	out = append(out, recent...)
	out = append(out, historical...)
	return out
}
