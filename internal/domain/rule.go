package domain

import "time"

// RuleType identifies the kind of workspace ingestion rule.
type RuleType string

const (
	RuleBlockSource      RuleType = "block_source"
	RuleBlockType        RuleType = "block_type"
	RuleDownweightType   RuleType = "downweight_type"
	RuleUpweightType     RuleType = "upweight_type"
	RulePrioritiseSource RuleType = "prioritise_source"
)

// IngestionRule is a workspace-defined block or boost rule. Rules are
// created and edited by workspace operators; the pipeline consumes them
// read-only, filtered to enabled rules and ordered by priority.
type IngestionRule struct {
	ID             string    `json:"id"`
	WorkspaceID    string    `json:"workspace_id"`
	RuleType       RuleType  `json:"rule_type"`
	Value          string    `json:"value"`
	WeightModifier *float64  `json:"weight_modifier,omitempty"`
	Enabled        bool      `json:"enabled"`
	Priority       int       `json:"priority"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Modifier returns the rule's weight modifier, defaulting to 1.0 when
// the operator left it unset.
func (r IngestionRule) Modifier() float64 {
	if r.WeightModifier == nil {
		return 1.0
	}
	return *r.WeightModifier
}
