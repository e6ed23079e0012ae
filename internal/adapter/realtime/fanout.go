package realtime

import (
	"context"

	"github.com/jmorand/scenepulse/internal/domain"
)

// Fanout forwards every broadcast to all configured transports.
type Fanout struct {
	broadcasters []domain.Broadcaster
}

// NewFanout composes broadcasters. Nil entries are skipped so callers
// can pass optional transports unconditionally.
func NewFanout(broadcasters ...domain.Broadcaster) *Fanout {
	out := make([]domain.Broadcaster, 0, len(broadcasters))
	for _, b := range broadcasters {
		if b != nil {
			out = append(out, b)
		}
	}
	return &Fanout{broadcasters: out}
}

// Broadcast forwards the batch to each transport in order. Transports
// handle their own failures.
func (f *Fanout) Broadcast(ctx context.Context, events []domain.PublishedEvent) {
	for _, b := range f.broadcasters {
		b.Broadcast(ctx, events)
	}
}
