package alerts

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func event(id string, eventType domain.EventType, artist, scene string, weight float64, createdAt time.Time) domain.PublishedEvent {
	return domain.PublishedEvent{
		NormalizedEvent: domain.NormalizedEvent{
			EventType:  eventType,
			ArtistSlug: artist,
			SceneSlug:  scene,
			Weight:     weight,
		},
		ID:        id,
		CreatedAt: createdAt,
	}
}

// burst creates n events for one artist spread through the last 24h.
func burst(prefix string, n int, artist string, weight float64, end time.Time) []domain.PublishedEvent {
	events := make([]domain.PublishedEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, event(
			fmt.Sprintf("%s-%d", prefix, i),
			domain.EventSocialMention, artist, "", weight,
			end.Add(-time.Duration(i+1)*time.Hour),
		))
	}
	return events
}

func TestSpikeDetector(t *testing.T) {
	d := &SpikeDetector{}

	t.Run("Doubled Volume Fires Critical", func(t *testing.T) {
		recent := burst("cur", 12, "night-parade", 0.3, testNow)
		previous := burst("prev", 4, "night-parade", 0.3, testNow.Add(-24*time.Hour))

		alerts := d.Detect(recent, previous, testNow)
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		a := alerts[0]
		if a.Severity != domain.SeverityCritical {
			t.Errorf("expected critical severity at 12 events, got %s", a.Severity)
		}
		if got := a.Payload["percent_increase"]; got != 200.0 {
			t.Errorf("expected 200%% increase, got %v", got)
		}
	})

	t.Run("Warning Below Critical Count", func(t *testing.T) {
		recent := burst("cur", 6, "night-parade", 0.3, testNow)
		previous := burst("prev", 2, "night-parade", 0.3, testNow.Add(-24*time.Hour))

		alerts := d.Detect(recent, previous, testNow)
		if len(alerts) != 1 || alerts[0].Severity != domain.SeverityWarning {
			t.Fatalf("expected 1 warning alert, got %+v", alerts)
		}
	})

	t.Run("No Previous Activity Never Fires", func(t *testing.T) {
		recent := burst("cur", 12, "night-parade", 0.3, testNow)
		if alerts := d.Detect(recent, nil, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert without a baseline, got %d", len(alerts))
		}
	})

	t.Run("Below Minimum Count Never Fires", func(t *testing.T) {
		recent := burst("cur", 4, "night-parade", 0.3, testNow)
		previous := burst("prev", 1, "night-parade", 0.3, testNow.Add(-24*time.Hour))
		if alerts := d.Detect(recent, previous, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert below %d events, got %d", spikeMinCount, len(alerts))
		}
	})

	t.Run("Below Ratio Never Fires", func(t *testing.T) {
		recent := burst("cur", 6, "night-parade", 0.3, testNow)
		previous := burst("prev", 4, "night-parade", 0.3, testNow.Add(-24*time.Hour))
		if alerts := d.Detect(recent, previous, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert at 1.5x, got %d", len(alerts))
		}
	})
}

func TestFirstEventDetector(t *testing.T) {
	d := &FirstEventDetector{}

	t.Run("First Of Its Kind Fires", func(t *testing.T) {
		recent := []domain.PublishedEvent{
			event("e1", domain.EventPressFeature, "night-parade", "", 0.7, testNow.Add(-time.Hour)),
		}
		historical := []domain.PublishedEvent{
			event("h1", domain.EventBlogPost, "night-parade", "", 0.5, testNow.Add(-48*time.Hour)),
		}

		alerts := d.Detect(recent, historical, testNow)
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Severity != domain.SeverityInfo {
			t.Errorf("expected info severity, got %s", alerts[0].Severity)
		}
	})

	t.Run("Prior History Suppresses", func(t *testing.T) {
		recent := []domain.PublishedEvent{
			event("e1", domain.EventPressFeature, "night-parade", "", 0.7, testNow.Add(-time.Hour)),
		}
		historical := []domain.PublishedEvent{
			event("h1", domain.EventPressFeature, "night-parade", "", 0.7, testNow.Add(-48*time.Hour)),
		}

		if alerts := d.Detect(recent, historical, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert with prior history, got %d", len(alerts))
		}
	})

	t.Run("Self Reference Does Not Suppress", func(t *testing.T) {
		// The recent event also appears in the historical set under the
		// same id; it is still that artist's first.
		e := event("e1", domain.EventPressFeature, "night-parade", "", 0.7, testNow.Add(-time.Hour))
		alerts := d.Detect([]domain.PublishedEvent{e}, []domain.PublishedEvent{e}, testNow)
		if len(alerts) != 1 {
			t.Errorf("expected the event's own historical copy ignored, got %d alerts", len(alerts))
		}
	})

	t.Run("Every Qualifying Event Fires", func(t *testing.T) {
		recent := []domain.PublishedEvent{
			event("e1", domain.EventPressFeature, "night-parade", "", 0.7, testNow.Add(-time.Hour)),
			event("e2", domain.EventRadioSpin, "night-parade", "", 0.6, testNow.Add(-2*time.Hour)),
		}
		if alerts := d.Detect(recent, nil, testNow); len(alerts) != 2 {
			t.Errorf("expected 2 alerts for 2 distinct first types, got %d", len(alerts))
		}
	})

	t.Run("Artistless Events Are Skipped", func(t *testing.T) {
		recent := []domain.PublishedEvent{
			event("e1", domain.EventScenePulseChange, "", "berlin-techno", 0.5, testNow.Add(-time.Hour)),
		}
		if alerts := d.Detect(recent, nil, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert for artistless events, got %d", len(alerts))
		}
	})
}

func TestHighCredibilityDetector(t *testing.T) {
	d := &HighCredibilityDetector{}

	recent := []domain.PublishedEvent{
		event("e1", domain.EventChartEntry, "night-parade", "", 0.95, testNow.Add(-time.Hour)),
		event("e2", domain.EventPressFeature, "night-parade", "", 0.85, testNow.Add(-time.Hour)),
		event("e3", domain.EventSocialMention, "night-parade", "", 0.3, testNow.Add(-time.Hour)),
	}

	alerts := d.Detect(recent, nil, testNow)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityCritical {
		t.Errorf("expected critical at weight 0.95, got %s", alerts[0].Severity)
	}
	if alerts[1].Severity != domain.SeverityWarning {
		t.Errorf("expected warning at weight 0.85, got %s", alerts[1].Severity)
	}
}

func TestSceneSurgeDetector(t *testing.T) {
	d := &SceneSurgeDetector{}

	sceneBurst := func(prefix string, n int, scene string, end time.Time) []domain.PublishedEvent {
		events := make([]domain.PublishedEvent, 0, n)
		for i := 0; i < n; i++ {
			events = append(events, event(
				fmt.Sprintf("%s-%d", prefix, i),
				domain.EventScenePulseChange, "", scene, 0.5,
				end.Add(-time.Duration(i+1)*time.Minute),
			))
		}
		return events
	}

	t.Run("Surge Fires Warning At High Volume", func(t *testing.T) {
		recent := sceneBurst("cur", 24, "berlin-techno", testNow)
		previous := sceneBurst("prev", 8, "berlin-techno", testNow.Add(-24*time.Hour))

		alerts := d.Detect(recent, previous, testNow)
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Severity != domain.SeverityWarning {
			t.Errorf("expected warning at 24 events, got %s", alerts[0].Severity)
		}
		if alerts[0].SceneSlug != "berlin-techno" {
			t.Errorf("unexpected scene: %s", alerts[0].SceneSlug)
		}
	})

	t.Run("Info Below Warning Count", func(t *testing.T) {
		recent := sceneBurst("cur", 12, "berlin-techno", testNow)
		previous := sceneBurst("prev", 4, "berlin-techno", testNow.Add(-24*time.Hour))

		alerts := d.Detect(recent, previous, testNow)
		if len(alerts) != 1 || alerts[0].Severity != domain.SeverityInfo {
			t.Fatalf("expected 1 info alert, got %+v", alerts)
		}
	})

	t.Run("Below Minimum Never Fires", func(t *testing.T) {
		recent := sceneBurst("cur", 9, "berlin-techno", testNow)
		previous := sceneBurst("prev", 2, "berlin-techno", testNow.Add(-24*time.Hour))
		if alerts := d.Detect(recent, previous, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert below %d events, got %d", surgeMinCount, len(alerts))
		}
	})
}

func TestAnomalyDetector(t *testing.T) {
	d := &AnomalyDetector{}

	// history builds per-day counts for one artist: one event per count,
	// spread over distinct UTC days ending well before the recent window.
	history := func(artist string, dailyCounts []int) []domain.PublishedEvent {
		var events []domain.PublishedEvent
		for day, count := range dailyCounts {
			dayStart := testNow.Add(-time.Duration(day+3) * 24 * time.Hour)
			for i := 0; i < count; i++ {
				events = append(events, event(
					fmt.Sprintf("h-%d-%d", day, i),
					domain.EventSocialMention, artist, "", 0.3,
					dayStart.Add(time.Duration(i)*time.Minute),
				))
			}
		}
		return events
	}

	t.Run("Outlier Volume Fires", func(t *testing.T) {
		// Daily history of 2,2,2,4,4,4 events: mean 3, stddev 1. Today's
		// 12 events is far beyond mean + 2*stddev = 5.
		historical := history("night-parade", []int{2, 2, 2, 4, 4, 4})
		recent := burst("cur", 12, "night-parade", 0.3, testNow)

		alerts := d.Detect(recent, historical, testNow)
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Severity != domain.SeverityWarning {
			t.Errorf("expected warning severity, got %s", alerts[0].Severity)
		}
		if z := alerts[0].Payload["z_score"].(float64); z <= 2 {
			t.Errorf("expected z-score above 2, got %v", z)
		}
	})

	t.Run("Thin History Is Skipped", func(t *testing.T) {
		historical := history("night-parade", []int{2, 2, 2}) // 6 events < 10
		recent := burst("cur", 12, "night-parade", 0.3, testNow)
		if alerts := d.Detect(recent, historical, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert with thin history, got %d", len(alerts))
		}
	})

	t.Run("Flat History Is Skipped", func(t *testing.T) {
		// Identical daily counts give stddev 0; z-score is undefined.
		historical := history("night-parade", []int{3, 3, 3, 3})
		recent := burst("cur", 12, "night-parade", 0.3, testNow)
		if alerts := d.Detect(recent, historical, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert against flat history, got %d", len(alerts))
		}
	})

	t.Run("Normal Volume Never Fires", func(t *testing.T) {
		historical := history("night-parade", []int{2, 2, 2, 4, 4, 4})
		recent := burst("cur", 3, "night-parade", 0.3, testNow)
		if alerts := d.Detect(recent, historical, testNow); len(alerts) != 0 {
			t.Errorf("expected no alert at normal volume, got %d", len(alerts))
		}
	})
}

func TestEngine_DetectAll(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Concatenates Detector Output", func(t *testing.T) {
		e := NewEngine(nil, logger)

		// One high-cred event that is also the artist's first.
		recent := []domain.PublishedEvent{
			event("e1", domain.EventChartEntry, "night-parade", "", 0.95, testNow.Add(-time.Hour)),
		}

		alerts := e.DetectAllAt(recent, nil, testNow)
		types := make(map[domain.AlertType]int)
		for _, a := range alerts {
			types[a.AlertType]++
		}
		if types[domain.AlertHighCred] != 1 {
			t.Errorf("expected 1 high_cred alert, got %d", types[domain.AlertHighCred])
		}
		if types[domain.AlertFirstEvent] != 1 {
			t.Errorf("expected 1 first_event alert, got %d", types[domain.AlertFirstEvent])
		}
	})

	t.Run("Panicking Detector Is Isolated", func(t *testing.T) {
		e := NewEngine(nil, logger)
		e.detectors = append(e.detectors, &panickyDetector{})

		recent := []domain.PublishedEvent{
			event("e1", domain.EventChartEntry, "night-parade", "", 0.95, testNow.Add(-time.Hour)),
		}

		alerts := e.DetectAllAt(recent, nil, testNow)
		if len(alerts) == 0 {
			t.Error("expected surviving detectors' alerts despite a panic")
		}
	})
}

type panickyDetector struct{}

func (d *panickyDetector) Type() domain.AlertType { return domain.AlertThreshold }

func (d *panickyDetector) Detect(recent, historical []domain.PublishedEvent, now time.Time) []domain.Alert {
	panic("detector bug")
}
