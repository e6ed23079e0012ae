package pipeline

import "github.com/jmorand/scenepulse/internal/domain"

// MergeDuplicates collapses events sharing a signature, keeping the
// variant with the strictly greater weight. Ties keep the first-seen
// event, so the merge is stable and idempotent. Output order follows the
// first occurrence of each signature's winning element.
func MergeDuplicates(events []domain.NormalizedEvent) []domain.NormalizedEvent {
	index := make(map[string]int, len(events))
	merged := make([]domain.NormalizedEvent, 0, len(events))

	for _, event := range events {
		sig := event.Signature()
		if at, ok := index[sig]; ok {
			if event.Weight > merged[at].Weight {
				merged[at] = event
			}
			continue
		}
		index[sig] = len(merged)
		merged = append(merged, event)
	}

	return merged
}
