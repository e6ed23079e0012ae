package domain

import "time"

// AlertType identifies which detector produced an alert.
type AlertType string

const (
	AlertSpike      AlertType = "spike"
	AlertThreshold  AlertType = "threshold"
	AlertAnomaly    AlertType = "anomaly"
	AlertFirstEvent AlertType = "first_event"
	AlertHighCred   AlertType = "high_cred"
	AlertSceneSurge AlertType = "scene_surge"
)

// Severity grades an alert for presentation and routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a detector finding. Acknowledgement and deletion are handled
// by the alert store; detectors only create.
type Alert struct {
	ID           string         `json:"id"`
	AlertType    AlertType      `json:"alert_type"`
	Severity     Severity       `json:"severity"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`
	Payload      map[string]any `json:"payload,omitempty"`
	ArtistSlug   string         `json:"artist_slug,omitempty"`
	SceneSlug    string         `json:"scene_slug,omitempty"`
	EntitySlug   string         `json:"entity_slug,omitempty"`
	Acknowledged bool           `json:"acknowledged"`
	CreatedAt    time.Time      `json:"created_at"`
}
