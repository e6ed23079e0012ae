// Package ingest provides the ingestion source implementations the
// pipeline fans out to.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmorand/scenepulse/internal/domain"
)

const defaultSourceTimeout = 30 * time.Second

// HTTPSource pulls raw events from a connector endpoint that responds
// with a JSON array. Requests are rate limited per source.
type HTTPSource struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPSource creates a source for one connector endpoint. rps <= 0
// disables rate limiting.
func NewHTTPSource(name, url string, rps float64, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &HTTPSource{
		name:    name,
		url:     url,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With("component", "http_source", "source", name),
	}
}

// Name returns the source identifier used in pipeline results and rules.
func (s *HTTPSource) Name() string {
	return s.name
}

// FetchEvents pulls one batch of raw events from the connector.
func (s *HTTPSource) FetchEvents(ctx context.Context) ([]domain.RawEvent, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	var events []domain.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Debug("fetched events", "count", len(events))
	return events, nil
}
