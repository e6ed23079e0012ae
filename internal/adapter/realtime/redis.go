package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/domain"
)

const redisChannel = "coverage_events"

// RedisBroadcaster publishes events to a Redis pub/sub channel for
// other services to consume.
type RedisBroadcaster struct {
	client  *redis.Client
	metrics *metrics.PipelineMetrics
	logger  *slog.Logger
}

// NewRedisBroadcaster creates a Redis pub/sub broadcaster. m may be nil.
func NewRedisBroadcaster(client *redis.Client, logger *slog.Logger, m *metrics.PipelineMetrics) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		metrics: m,
		logger:  logger.With("component", "redis_broadcaster"),
	}
}

// Broadcast publishes each event as one pub/sub message. Failures are
// logged and counted; subscribers that miss a message read the event
// store instead.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, events []domain.PublishedEvent) {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("failed to marshal event for redis publish", "error", err, "event_id", event.ID)
			continue
		}
		if err := b.client.Publish(ctx, redisChannel, payload).Err(); err != nil {
			b.logger.Error("failed to publish event to redis", "error", err, "event_id", event.ID)
			if b.metrics != nil {
				b.metrics.BroadcastDrops.WithLabelValues("redis").Inc()
			}
		}
	}
}
