package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"

	"github.com/jmorand/scenepulse/internal/domain"
)

// SubscriptionStore persists per-user feed subscriptions. The three
// filter lists are stored as text arrays; lists are de-duplicated
// before writing so reads always see set semantics.
type SubscriptionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSubscriptionStore creates a PostgreSQL subscription store.
func NewSubscriptionStore(db *sql.DB, logger *slog.Logger) *SubscriptionStore {
	return &SubscriptionStore{db: db, logger: logger.With("component", "subscription_store")}
}

// GetSubscription returns a user's subscription, or domain.ErrNotFound.
func (s *SubscriptionStore) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT user_id, workspace_id, subscribed_types, subscribed_artists, subscribed_scenes
		FROM subscriptions
		WHERE user_id = $1`

	var (
		sub     domain.Subscription
		types   pq.StringArray
		artists pq.StringArray
		scenes  pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&sub.UserID, &sub.WorkspaceID, &types, &artists, &scenes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sub.SubscribedTypes = make([]domain.EventType, len(types))
	for i, t := range types {
		sub.SubscribedTypes[i] = domain.EventType(t)
	}
	sub.SubscribedArtists = artists
	sub.SubscribedScenes = scenes
	return &sub, nil
}

// SaveSubscription upserts a user's subscription after normalizing the
// filter lists.
func (s *SubscriptionStore) SaveSubscription(ctx context.Context, sub *domain.Subscription) error {
	sub.Normalize()

	types := make(pq.StringArray, len(sub.SubscribedTypes))
	for i, t := range sub.SubscribedTypes {
		types[i] = string(t)
	}

	query := `
		INSERT INTO subscriptions (user_id, workspace_id, subscribed_types, subscribed_artists, subscribed_scenes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			subscribed_types = EXCLUDED.subscribed_types,
			subscribed_artists = EXCLUDED.subscribed_artists,
			subscribed_scenes = EXCLUDED.subscribed_scenes`
	_, err := s.db.ExecContext(ctx, query, sub.UserID, sub.WorkspaceID, types, pq.StringArray(sub.SubscribedArtists), pq.StringArray(sub.SubscribedScenes))
	return err
}

// DeleteSubscription removes a user's subscription.
func (s *SubscriptionStore) DeleteSubscription(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
