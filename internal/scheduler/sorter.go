package scheduler

import (
	"sort"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// OrderedSteps returns the template's steps in execution order:
// 1. Explicit order: ascending
// 2. Insertion position: ascending
// 3. Step ID: lexical ascending
// Duplicate step IDs are dropped; the first occurrence wins. The input is
// not modified.
func OrderedSteps(steps []domain.Step) []domain.Step {
	sorted := make([]domain.Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})

	seen := make(map[string]bool, len(sorted))
	out := sorted[:0]
	for _, s := range sorted {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}
