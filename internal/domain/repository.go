package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IngestionSource produces zero or more raw events per fetch. A source
// must surface failures as an error return; the pipeline isolates any
// failure (including panics) so one source can never abort a batch.
type IngestionSource interface {
	Name() string
	FetchEvents(ctx context.Context) ([]RawEvent, error)
}

// Publisher assigns identity and creation time to processed events and
// persists them. A publish failure is the sole fatal condition of a
// pipeline run.
type Publisher interface {
	Publish(ctx context.Context, events []NormalizedEvent) ([]PublishedEvent, error)
}

// EventStore reads back published events for trend aggregation, alert
// detection, and feed builds.
type EventStore interface {
	Publisher

	// RecentEvents returns events with created_at >= since, oldest first.
	RecentEvents(ctx context.Context, since time.Time) ([]PublishedEvent, error)

	// EventsBetween returns events with from <= created_at < to, oldest first.
	EventsBetween(ctx context.Context, from, to time.Time) ([]PublishedEvent, error)
}

// RuleStore provides workspace ingestion rules. The pipeline only needs
// read access during a run; CRUD is driven by the HTTP API.
type RuleStore interface {
	RulesForWorkspace(ctx context.Context, workspaceID string) ([]IngestionRule, error)
	CreateRule(ctx context.Context, rule *IngestionRule) error
	UpdateRule(ctx context.Context, rule *IngestionRule) error
	DeleteRule(ctx context.Context, workspaceID, id string) error
}

// AlertStore persists detector findings and handles acknowledgement.
type AlertStore interface {
	SaveAlerts(ctx context.Context, alerts []Alert) error
	ListAlerts(ctx context.Context, limit int) ([]Alert, error)
	Acknowledge(ctx context.Context, id string) error
	DeleteAlert(ctx context.Context, id string) error
}

// SubscriptionStore persists per-user feed subscriptions.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	SaveSubscription(ctx context.Context, sub *Subscription) error
	DeleteSubscription(ctx context.Context, userID string) error
}

// MarkerStore tracks each user's last-seen feed time.
type MarkerStore interface {
	// GetMarker returns nil without error when the user has no marker yet.
	GetMarker(ctx context.Context, userID string) (*Marker, error)
	Touch(ctx context.Context, userID string, seenAt time.Time) error
}

// Broadcaster pushes published events to a realtime transport. Broadcast
// is fire-and-forget: implementations must swallow and log failures, and
// must never block or fail the pipeline run that produced the events.
type Broadcaster interface {
	Broadcast(ctx context.Context, events []PublishedEvent)
}
