package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/domain"
)

// KafkaBroadcaster writes published events to a Kafka topic, keyed by
// artist slug so one artist's events stay ordered within a partition.
type KafkaBroadcaster struct {
	writer  *kafka.Writer
	metrics *metrics.PipelineMetrics
	logger  *slog.Logger
}

// NewKafkaBroadcaster creates a Kafka broadcaster. m may be nil.
func NewKafkaBroadcaster(brokers []string, topic string, logger *slog.Logger, m *metrics.PipelineMetrics) *KafkaBroadcaster {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaBroadcaster{
		writer:  writer,
		metrics: m,
		logger:  logger.With("component", "kafka_broadcaster"),
	}
}

// Broadcast writes the batch in one produce call. A failed write drops
// the whole batch; Kafka consumers are a best-effort mirror of the
// event store, not the system of record.
func (b *KafkaBroadcaster) Broadcast(ctx context.Context, events []domain.PublishedEvent) {
	if len(events) == 0 {
		return
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("failed to marshal event for kafka", "error", err, "event_id", event.ID)
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.ArtistSlug),
			Value: payload,
		})
	}

	if err := b.writer.WriteMessages(ctx, messages...); err != nil {
		b.logger.Error("failed to write events to kafka", "error", err, "count", len(messages))
		if b.metrics != nil {
			b.metrics.BroadcastDrops.WithLabelValues("kafka").Add(float64(len(messages)))
		}
	}
}

// Close flushes and closes the underlying writer.
func (b *KafkaBroadcaster) Close() error {
	return b.writer.Close()
}
