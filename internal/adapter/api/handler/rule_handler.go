package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmorand/scenepulse/internal/domain"
)

var validRuleTypes = map[domain.RuleType]struct{}{
	domain.RuleBlockSource:      {},
	domain.RuleBlockType:        {},
	domain.RuleDownweightType:   {},
	domain.RuleUpweightType:     {},
	domain.RulePrioritiseSource: {},
}

// RuleHandler serves workspace ingestion rule CRUD.
type RuleHandler struct {
	rules  domain.RuleStore
	logger *slog.Logger
}

// NewRuleHandler creates the rule handler.
func NewRuleHandler(rules domain.RuleStore, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		rules:  rules,
		logger: logger.With("component", "rule_handler"),
	}
}

// ListRules returns a workspace's rules, highest priority first.
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	rules, err := h.rules.RulesForWorkspace(r.Context(), workspaceID)
	if err != nil {
		h.logger.Error("failed to list rules", "error", err, "workspace_id", workspaceID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rules == nil {
		rules = []domain.IngestionRule{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// CreateRule adds a rule to the workspace.
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	var rule domain.IngestionRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.WorkspaceID = workspaceID

	if msg, ok := validateRule(rule); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.rules.CreateRule(r.Context(), &rule); err != nil {
		h.logger.Error("failed to create rule", "error", err, "workspace_id", workspaceID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// UpdateRule rewrites an existing rule.
func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	ruleID := chi.URLParam(r, "ruleID")

	var rule domain.IngestionRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.ID = ruleID
	rule.WorkspaceID = workspaceID

	if msg, ok := validateRule(rule); !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.rules.UpdateRule(r.Context(), &rule); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// DeleteRule removes a rule from the workspace.
func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	ruleID := chi.URLParam(r, "ruleID")
	if err := h.rules.DeleteRule(r.Context(), workspaceID, ruleID); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateRule(rule domain.IngestionRule) (string, bool) {
	if _, ok := validRuleTypes[rule.RuleType]; !ok {
		return "unknown rule type: " + string(rule.RuleType), false
	}
	if rule.Value == "" {
		return "value is required", false
	}
	if rule.WeightModifier != nil && *rule.WeightModifier < 0 {
		return "weight_modifier must not be negative", false
	}
	return "", true
}
