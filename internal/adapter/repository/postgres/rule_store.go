package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmorand/scenepulse/internal/domain"
)

type ruleCacheEntry struct {
	rules     []domain.IngestionRule
	expiresAt time.Time
}

// RuleStore implements domain.RuleStore using PostgreSQL as the source
// of truth and an in-memory, time-based cache keyed by workspace. The
// pipeline reads rules on every run; the cache keeps that off the hot
// path. Mutations invalidate the workspace's entry.
type RuleStore struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[string]ruleCacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
}

// NewRuleStore creates a new instance of the PostgreSQL rule store.
func NewRuleStore(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration) *RuleStore {
	return &RuleStore{
		db:       db,
		logger:   logger.With("component", "rule_store"),
		cache:    make(map[string]ruleCacheEntry),
		cacheTTL: cacheTTL,
	}
}

// RulesForWorkspace returns a workspace's rules, serving from cache when
// the entry is fresh.
func (s *RuleStore) RulesForWorkspace(ctx context.Context, workspaceID string) ([]domain.IngestionRule, error) {
	s.mu.RLock()
	entry, found := s.cache[workspaceID]
	s.mu.RUnlock()

	if found && time.Now().Before(entry.expiresAt) {
		return entry.rules, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check in case another goroutine refreshed while waiting.
	entry, found = s.cache[workspaceID]
	if found && time.Now().Before(entry.expiresAt) {
		return entry.rules, nil
	}

	rules, err := s.queryRules(ctx, workspaceID)
	if err != nil {
		s.logger.Error("failed to load workspace rules from database", "error", err, "workspace_id", workspaceID)
		// Don't cache errors, let the next request retry from the DB.
		return nil, err
	}

	s.cache[workspaceID] = ruleCacheEntry{
		rules:     rules,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	return rules, nil
}

func (s *RuleStore) queryRules(ctx context.Context, workspaceID string) ([]domain.IngestionRule, error) {
	query := `
		SELECT id, workspace_id, rule_type, value, weight_modifier, enabled, priority, created_at, updated_at
		FROM ingestion_rules
		WHERE workspace_id = $1
		ORDER BY priority DESC, created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.IngestionRule
	for rows.Next() {
		var (
			rule     domain.IngestionRule
			modifier sql.NullFloat64
		)
		if err := rows.Scan(&rule.ID, &rule.WorkspaceID, &rule.RuleType, &rule.Value, &modifier, &rule.Enabled, &rule.Priority, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		if modifier.Valid {
			rule.WeightModifier = &modifier.Float64
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateRule inserts a rule, assigning its id and timestamps.
func (s *RuleStore) CreateRule(ctx context.Context, rule *domain.IngestionRule) error {
	now := time.Now().UTC()
	rule.ID = uuid.NewString()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO ingestion_rules (id, workspace_id, rule_type, value, weight_modifier, enabled, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query, rule.ID, rule.WorkspaceID, string(rule.RuleType), rule.Value, nullFloat(rule.WeightModifier), rule.Enabled, rule.Priority, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return err
	}

	s.invalidate(rule.WorkspaceID)
	return nil
}

// UpdateRule rewrites a rule's mutable fields. Returns
// domain.ErrNotFound when the rule does not exist in the workspace.
func (s *RuleStore) UpdateRule(ctx context.Context, rule *domain.IngestionRule) error {
	rule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE ingestion_rules
		SET rule_type = $1, value = $2, weight_modifier = $3, enabled = $4, priority = $5, updated_at = $6
		WHERE id = $7 AND workspace_id = $8`
	res, err := s.db.ExecContext(ctx, query, string(rule.RuleType), rule.Value, nullFloat(rule.WeightModifier), rule.Enabled, rule.Priority, rule.UpdatedAt, rule.ID, rule.WorkspaceID)
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

	s.invalidate(rule.WorkspaceID)
	return nil
}

// DeleteRule removes a rule from a workspace.
func (s *RuleStore) DeleteRule(ctx context.Context, workspaceID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ingestion_rules WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
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

	s.invalidate(workspaceID)
	return nil
}

func (s *RuleStore) invalidate(workspaceID string) {
	s.mu.Lock()
	delete(s.cache, workspaceID)
	s.mu.Unlock()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
