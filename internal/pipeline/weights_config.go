package pipeline

import (
	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/pkg/config"
)

// WeightTableFromConfig overlays file-configured weight entries on the
// built-in table. Override keys must be valid event types; unknown keys
// are dropped silently so a stale config file cannot poison the table.
// An override replaces base weight and caps but keeps the built-in
// multipliers, which are not operator-tunable.
func WeightTableFromConfig(overrides map[string]config.WeightEntry) WeightTable {
	table := DefaultWeightTable()
	for name, entry := range overrides {
		eventType := domain.EventType(name)
		if !eventType.Valid() {
			continue
		}

		cfg := table[eventType]
		if entry.BaseWeight > 0 {
			cfg.BaseWeight = entry.BaseWeight
		}
		if entry.MinWeight != nil || entry.MaxWeight != nil {
			caps := &WeightCaps{}
			if cfg.Caps != nil {
				*caps = *cfg.Caps
			}
			if entry.MinWeight != nil {
				caps.Min = entry.MinWeight
			}
			if entry.MaxWeight != nil {
				caps.Max = entry.MaxWeight
			}
			cfg.Caps = caps
		}
		table[eventType] = cfg
	}
	return table
}
