package pipeline

import (
	"sort"

	"github.com/jmorand/scenepulse/internal/domain"
)

// ApplyRules folds workspace rules over the event batch. Rules are
// filtered to enabled ones and applied in priority order, highest first;
// equal priorities keep their original relative order. Each rule sees
// the output of the previous rule.
func ApplyRules(events []domain.NormalizedEvent, rules []domain.IngestionRule) []domain.NormalizedEvent {
	active := make([]domain.IngestionRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			active = append(active, rule)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	out := make([]domain.NormalizedEvent, len(events))
	copy(out, events)

	for _, rule := range active {
		out = applyRule(out, rule)
	}
	return out
}

func applyRule(events []domain.NormalizedEvent, rule domain.IngestionRule) []domain.NormalizedEvent {
	switch rule.RuleType {
	case domain.RuleBlockSource:
		return filterEvents(events, func(e domain.NormalizedEvent) bool {
			return e.EntitySlug != rule.Value
		})

	case domain.RuleBlockType:
		return filterEvents(events, func(e domain.NormalizedEvent) bool {
			return string(e.EventType) != rule.Value
		})

	case domain.RuleDownweightType, domain.RuleUpweightType:
		return scaleEvents(events, rule.Modifier(), func(e domain.NormalizedEvent) bool {
			return string(e.EventType) == rule.Value
		})

	case domain.RulePrioritiseSource:
		return scaleEvents(events, rule.Modifier(), func(e domain.NormalizedEvent) bool {
			return e.EntitySlug == rule.Value
		})

	default:
		return events
	}
}

func filterEvents(events []domain.NormalizedEvent, keep func(domain.NormalizedEvent) bool) []domain.NormalizedEvent {
	out := events[:0]
	for _, event := range events {
		if keep(event) {
			out = append(out, event)
		}
	}
	return out
}

func scaleEvents(events []domain.NormalizedEvent, modifier float64, match func(domain.NormalizedEvent) bool) []domain.NormalizedEvent {
	for i, event := range events {
		if match(event) {
			events[i].Weight = round2(event.Weight * modifier)
		}
	}
	return events
}
