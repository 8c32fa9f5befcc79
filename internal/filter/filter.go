// Package filter narrows a list of extracted events.
//
// A Filter combines optional criteria:
//   - Date range (from/to dates, inclusive)
//   - Keywords (substring of name or description, case-insensitive)
//   - Locations (substring match, case-insensitive)
//   - Sources (detection strategies)
//   - Minimum confidence tier
//   - Weekends only (Saturday/Sunday)
//   - Dated only (drop events whose date could not be determined)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Keywords = []string{"workshop"}
//	f.MinConfidence = event.ConfidenceMedium
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Keywords match the name or the description.
	Keywords  []string       `json:"keywords,omitempty"`
	Locations []string       `json:"locations,omitempty"`
	Sources   []event.Source `json:"sources,omitempty"`

	MinConfidence event.Confidence `json:"min_confidence,omitempty"`
	WeekendsOnly  bool             `json:"weekends_only,omitempty"`
	// DatedOnly drops events without a calendar date. Otherwise such events
	// pass the date criteria.
	DatedOnly bool `json:"dated_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Keywords) == 0 &&
		len(f.Locations) == 0 &&
		len(f.Sources) == 0 &&
		f.MinConfidence == "" &&
		!f.WeekendsOnly &&
		!f.DatedOnly
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	eventDate := parseEventDate(evt.Date)
	if f.DatedOnly && eventDate == nil {
		return false
	}

	if f.DateFrom != nil && eventDate != nil && eventDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && eventDate != nil && eventDate.After(*f.DateTo) {
		return false
	}

	if f.WeekendsOnly && eventDate != nil {
		weekday := eventDate.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if len(f.Keywords) > 0 {
		text := evt.Name
		if evt.HasDescription() {
			text += " " + evt.Description
		}
		if !containsAny(text, f.Keywords) {
			return false
		}
	}

	if len(f.Locations) > 0 && (!evt.HasLocation() || !containsAny(evt.Location, f.Locations)) {
		return false
	}

	if len(f.Sources) > 0 {
		matched := false
		for _, s := range f.Sources {
			if strings.EqualFold(string(evt.Source), string(s)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MinConfidence != "" && evt.Confidence.Rank() < f.MinConfidence.Rank() {
		return false
	}

	return true
}

// Apply returns the events matching the filter, preserving their order.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	var filtered []*event.Event
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Mar 1, 2026 | To: Mar 15, 2026 | Keywords: jazz | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}
	if len(f.Sources) > 0 {
		names := make([]string, len(f.Sources))
		for i, s := range f.Sources {
			names[i] = string(s)
		}
		parts = append(parts, fmt.Sprintf("Sources: %s", strings.Join(names, ", ")))
	}
	if f.MinConfidence != "" {
		parts = append(parts, fmt.Sprintf("Confidence: %s or higher", f.MinConfidence))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.DatedOnly {
		parts = append(parts, "Dated only")
	}
	return strings.Join(parts, " | ")
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// parseEventDate parses the normalized date of an event. Returns nil for
// the not-found sentinel and any raw date that did not normalize.
func parseEventDate(date string) *time.Time {
	t, err := time.Parse(event.DisplayLayout, date)
	if err != nil {
		return nil
	}
	return &t
}
