package detect

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// Aggregate drops any remaining duplicate signatures, orders candidates by
// date, confidence and name, and keeps at most max of them. The cap applies
// after sorting so the best-ranked candidates survive. max <= 0 disables it.
func Aggregate(candidates []*event.Event, max int) []*event.Event {
	seen := NewSeenSet()
	out := make([]*event.Event, 0, len(candidates))
	for _, evt := range candidates {
		if evt == nil || !seen.Add(evt.Signature()) {
			continue
		}
		out = append(out, evt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func less(a, b *event.Event) bool {
	if a.DateSortKey != b.DateSortKey {
		return a.DateSortKey < b.DateSortKey
	}
	if ra, rb := a.Confidence.Rank(), b.Confidence.Rank(); ra != rb {
		return ra > rb
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}
