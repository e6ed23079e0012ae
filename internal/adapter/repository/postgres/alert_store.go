package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmorand/scenepulse/internal/domain"
)

// AlertStore persists detector findings.
type AlertStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAlertStore creates a PostgreSQL alert store.
func NewAlertStore(db *sql.DB, logger *slog.Logger) *AlertStore {
	return &AlertStore{db: db, logger: logger.With("component", "alert_store")}
}

// SaveAlerts inserts a batch of alerts, assigning ids to any alert the
// detector left without one.
func (s *AlertStore) SaveAlerts(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	query := `
		INSERT INTO alerts (id, alert_type, severity, title, message, payload, artist_slug, scene_slug, entity_slug, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	stmt, err := txn.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, alert := range alerts {
		if alert.ID == "" {
			alert.ID = uuid.NewString()
		}
		if alert.CreatedAt.IsZero() {
			alert.CreatedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(alert.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal alert payload: %w", err)
		}
		_, err = stmt.ExecContext(ctx, alert.ID, string(alert.AlertType), string(alert.Severity), alert.Title, alert.Message, payload, alert.ArtistSlug, alert.SceneSlug, alert.EntitySlug, alert.Acknowledged, alert.CreatedAt)
		if err != nil {
			return err
		}
	}

	if err := txn.Commit(); err != nil {
		return err
	}

	s.logger.Info("saved alerts", "count", len(alerts))
	return nil
}

// ListAlerts returns the newest alerts first, up to limit.
func (s *AlertStore) ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, alert_type, severity, title, message, payload, artist_slug, scene_slug, entity_slug, acknowledged, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var (
			alert   domain.Alert
			payload []byte
		)
		if err := rows.Scan(&alert.ID, &alert.AlertType, &alert.Severity, &alert.Title, &alert.Message, &payload, &alert.ArtistSlug, &alert.SceneSlug, &alert.EntitySlug, &alert.Acknowledged, &alert.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &alert.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload for alert %s: %w", alert.ID, err)
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Acknowledge marks an alert as seen by an operator.
func (s *AlertStore) Acknowledge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET acknowledged = true WHERE id = $1`, id)
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

// DeleteAlert removes an alert.
func (s *AlertStore) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
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
