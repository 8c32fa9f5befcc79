package detect

import (
	"time"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

// Description bounds per strategy, in runes.
const (
	StructuredDescriptionLimit = 800
	PatternDescriptionLimit    = 500
	TextDescriptionLimit       = 300
)

const maxNameLength = 200

// SeenSet records the signatures inserted during one detection run.
type SeenSet struct {
	sigs map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{sigs: make(map[string]struct{})}
}

// Add inserts sig and reports whether it was new.
func (s *SeenSet) Add(sig string) bool {
	if _, ok := s.sigs[sig]; ok {
		return false
	}
	s.sigs[sig] = struct{}{}
	return true
}

// Len returns the number of signatures in the set.
func (s *SeenSet) Len() int {
	return len(s.sigs)
}

// Run is the state of one detection pass over one document. Strategies
// read the document through it and insert candidates into it; nothing in a
// Run outlives the pass.
type Run struct {
	Doc     dom.Document
	BaseURL string
	Seen    *SeenSet
	Now     time.Time

	log     *logger.Logger
	seq     int
	claimed map[any]bool // containers already turned into candidates
}

// NewRun prepares a pass over doc.
func NewRun(doc dom.Document, baseURL string, now time.Time) *Run {
	return &Run{
		Doc:     doc,
		BaseURL: baseURL,
		Seen:    NewSeenSet(),
		Now:     now,
		log:     logger.Default(),
		claimed: make(map[any]bool),
	}
}

// insert turns extracted fields into a candidate unless the name is unusable
// or the signature was already seen.
func (r *Run) insert(source event.Source, f extract.Fields) (*event.Event, bool) {
	name := event.CleanText(f.Name)
	if !event.ValidName(name) {
		return nil, false
	}
	name = event.Truncate(name, maxNameLength)

	date := f.Date
	if date.Formatted == "" {
		date.Formatted = event.DateNotFound
	}

	sig := event.Signature(name, date.Formatted)
	if !r.Seen.Add(sig) {
		return nil, false
	}

	desc := f.Description
	if desc == "" {
		desc = event.NoDescription
	}
	loc := f.Location
	if loc == "" {
		loc = event.LocationNotSpecified
	}
	url := f.URL
	if url == "" {
		url = r.BaseURL
	}

	evt := &event.Event{
		ID:          event.GenerateID(source, r.seq, sig),
		Name:        name,
		Date:        date.Formatted,
		DateSortKey: date.SortKey,
		Time:        f.Time,
		Description: desc,
		Location:    loc,
		URL:         url,
		Source:      source,
	}
	evt.Confidence = event.Assess(source, event.Signals{
		ReliableDate:   date.Parsed,
		HasDescription: evt.HasDescription(),
		HasLocation:    evt.HasLocation(),
	})
	r.seq++
	return evt, true
}

func (r *Run) claim(n dom.Node) {
	r.claimed[n.Key()] = true
}

// claimedAncestor reports whether n or any of its ancestors became a candidate.
func (r *Run) claimedAncestor(n dom.Node) bool {
	for cur, ok := n, true; ok; cur, ok = cur.Parent() {
		if r.claimed[cur.Key()] {
			return true
		}
	}
	return false
}
