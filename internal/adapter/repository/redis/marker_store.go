// Package redis implements the volatile stores on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmorand/scenepulse/internal/domain"
)

const markerKeyPrefix = "feed_marker:"

// MarkerStore tracks each user's last-seen feed time in Redis. A miss
// is not an error: a user who has never opened their feed simply has no
// marker.
type MarkerStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMarkerStore creates a Redis marker store.
func NewMarkerStore(client *redis.Client, logger *slog.Logger) *MarkerStore {
	return &MarkerStore{
		client: client,
		logger: logger.With("component", "marker_store"),
	}
}

// GetMarker returns the user's marker, or (nil, nil) when none exists.
func (s *MarkerStore) GetMarker(ctx context.Context, userID string) (*domain.Marker, error) {
	value, err := s.client.Get(ctx, markerKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seenAt, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("corrupt marker for user %s: %w", userID, err)
	}
	return &domain.Marker{UserID: userID, LastSeenAt: seenAt}, nil
}

// Touch records that the user saw their feed at seenAt.
func (s *MarkerStore) Touch(ctx context.Context, userID string, seenAt time.Time) error {
	return s.client.Set(ctx, markerKeyPrefix+userID, seenAt.UTC().Format(time.RFC3339Nano), 0).Err()
}
