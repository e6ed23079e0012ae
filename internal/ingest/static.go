package ingest

import (
	"context"

	"github.com/jmorand/scenepulse/internal/domain"
)

// StaticSource returns a fixed batch of events on every fetch. Used in
// tests and for seeding a fresh environment.
type StaticSource struct {
	name   string
	events []domain.RawEvent
}

// NewStaticSource creates a source that always yields the given events.
func NewStaticSource(name string, events []domain.RawEvent) *StaticSource {
	return &StaticSource{name: name, events: events}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) FetchEvents(ctx context.Context) ([]domain.RawEvent, error) {
	out := make([]domain.RawEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}
