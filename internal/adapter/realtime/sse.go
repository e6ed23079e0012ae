// Package realtime pushes published events to live consumers. Every
// transport implements domain.Broadcaster: fire-and-forget, failures
// logged and counted but never surfaced to the pipeline.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/domain"
)

// SSEBroker manages SSE client connections and broadcasts published
// events to them.
type SSEBroker struct {
	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	clients map[chan []byte]struct{}
	mu      sync.RWMutex
}

// NewSSEBroker creates a new SSEBroker. m may be nil.
func NewSSEBroker(logger *slog.Logger, m *metrics.PipelineMetrics) *SSEBroker {
	return &SSEBroker{
		logger:  logger.With("component", "sse_broker"),
		metrics: m,
		clients: make(map[chan []byte]struct{}),
	}
}

// ServeHTTP handles new client connections for the SSE stream.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	messageChan := make(chan []byte, 16)
	b.addClient(messageChan)
	defer b.removeClient(messageChan)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return // Channel was closed
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// Broadcast serializes each event once and fans it out to every
// connected client. Slow clients are skipped rather than blocking the
// batch.
func (b *SSEBroker) Broadcast(ctx context.Context, events []domain.PublishedEvent) {
	for _, event := range events {
		msg, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("failed to marshal event for SSE", "error", err, "event_id", event.ID)
			continue
		}
		b.send(msg)
	}
}

func (b *SSEBroker) send(msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- msg:
		default:
			// Client channel is full, maybe slow client.
			// We don't block the broadcast for one slow client.
			if b.metrics != nil {
				b.metrics.BroadcastDrops.WithLabelValues("sse").Inc()
			}
		}
	}
}

func (b *SSEBroker) addClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	if b.metrics != nil {
		b.metrics.SSEClients.Inc()
	}
	b.logger.Info("SSE client connected")
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		if b.metrics != nil {
			b.metrics.SSEClients.Dec()
		}
		b.logger.Info("SSE client disconnected")
	}
}
