package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate       SortOrder = "date"
	SortByName       SortOrder = "name"
	SortByConfidence SortOrder = "confidence"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByName, SortByConfidence:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'name' or 'confidence')", s)
}

// sortEvents sorts a slice of events based on the specified sort order.
// Detection already returns date order, so SortByDate only re-establishes it.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			ni, nj := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if ni != nj {
				return ni < nj
			}
			return compareByDate(events[i], events[j])
		})
	case SortByConfidence:
		sort.SliceStable(events, func(i, j int) bool {
			ri, rj := events[i].Confidence.Rank(), events[j].Confidence.Rank()
			if ri != rj {
				return ri > rj
			}
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate reports whether i comes before j: earlier date first, then
// higher confidence, then name.
func compareByDate(i, j *event.Event) bool {
	if i.DateSortKey != j.DateSortKey {
		return i.DateSortKey < j.DateSortKey
	}
	if ri, rj := i.Confidence.Rank(), j.Confidence.Rank(); ri != rj {
		return ri > rj
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
