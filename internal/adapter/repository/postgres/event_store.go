// Package postgres implements the persistent stores on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jmorand/scenepulse/internal/domain"
)

// EventStore persists published coverage events.
type EventStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewEventStore creates a PostgreSQL event store.
func NewEventStore(db *sql.DB, logger *slog.Logger) *EventStore {
	return &EventStore{
		db:     db,
		logger: logger.With("component", "event_store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Publish assigns each event an id and creation time and writes the
// batch using the COPY protocol into a temp table, then merges into the
// main table. The upsert on id makes retried batches idempotent.
func (s *EventStore) Publish(ctx context.Context, events []domain.NormalizedEvent) ([]domain.PublishedEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	createdAt := s.now()
	published := make([]domain.PublishedEvent, len(events))
	for i, event := range events {
		published[i] = domain.PublishedEvent{
			NormalizedEvent: event,
			ID:              uuid.NewString(),
			CreatedAt:       createdAt,
		}
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "events_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE events INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return nil, err
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName, "id", "event_type", "artist_slug", "entity_slug", "scene_slug", "weight", "metadata", "created_at"))
	if err != nil {
		return nil, err
	}

	for _, event := range published {
		metadata, err := json.Marshal(event.Metadata)
		if err != nil {
			_ = stmt.Close()
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx, event.ID, string(event.EventType), event.ArtistSlug, event.EntitySlug, event.SceneSlug, event.Weight, metadata, event.CreatedAt)
		if err != nil {
			_ = stmt.Close()
			return nil, err
		}
	}

	if err := stmt.Close(); err != nil {
		return nil, err
	}

	upsertQuery := `
		INSERT INTO events (id, event_type, artist_slug, entity_slug, scene_slug, weight, metadata, created_at)
		SELECT id, event_type, artist_slug, entity_slug, scene_slug, weight, metadata, created_at FROM ` + tempTableName + `
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := txn.ExecContext(ctx, upsertQuery); err != nil {
		return nil, err
	}

	if err := txn.Commit(); err != nil {
		return nil, err
	}

	s.logger.Debug("published event batch", "count", len(published))
	return published, nil
}

// RecentEvents returns events with created_at >= since, oldest first.
func (s *EventStore) RecentEvents(ctx context.Context, since time.Time) ([]domain.PublishedEvent, error) {
	query := `
		SELECT id, event_type, artist_slug, entity_slug, scene_slug, weight, metadata, created_at
		FROM events
		WHERE created_at >= $1
		ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// EventsBetween returns events with from <= created_at < to, oldest first.
func (s *EventStore) EventsBetween(ctx context.Context, from, to time.Time) ([]domain.PublishedEvent, error) {
	query := `
		SELECT id, event_type, artist_slug, entity_slug, scene_slug, weight, metadata, created_at
		FROM events
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]domain.PublishedEvent, error) {
	var events []domain.PublishedEvent
	for rows.Next() {
		var (
			event    domain.PublishedEvent
			metadata []byte
		)
		if err := rows.Scan(&event.ID, &event.EventType, &event.ArtistSlug, &event.EntitySlug, &event.SceneSlug, &event.Weight, &metadata, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for event %s: %w", event.ID, err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
