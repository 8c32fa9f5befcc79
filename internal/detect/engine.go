package detect

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

// DefaultMaxEvents caps the result set.
const DefaultMaxEvents = 50

// MethodHTMLAnalysis describes a run that found nothing.
const MethodHTMLAnalysis = "HTML Analysis"

// ErrUnparsable is returned when the document cannot be parsed at all.
var ErrUnparsable = errors.New("unparsable HTML document")

// Strategy is one detection pass over a document.
type Strategy struct {
	Source event.Source
	Detect func(*Run) []*event.Event
}

// Strategies run in this order; earlier ones win signature collisions.
var Strategies = []Strategy{
	{Source: event.SourceStructuredData, Detect: StructuredData},
	{Source: event.SourceMicrodata, Detect: Microdata},
	{Source: event.SourcePattern, Detect: Pattern},
	{Source: event.SourceFreeText, Detect: FreeText},
	{Source: event.SourceTable, Detect: Table},
}

// Result is the outcome of one detection run.
type Result struct {
	Events []*event.Event `json:"events"`
	Count  int            `json:"count"`
	// Found is the number of candidates before the cap was applied.
	Found      int            `json:"found"`
	Strategies []event.Source `json:"strategies"`
	Method     string         `json:"method"`
}

// Empty reports whether no events were found.
func (r *Result) Empty() bool {
	return r.Count == 0
}

// Engine runs the detection strategies over HTML documents. An Engine holds
// only configuration and is safe for concurrent use.
type Engine struct {
	maxEvents int
	clock     func() time.Time
	log       *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxEvents overrides the result cap.
func WithMaxEvents(n int) Option {
	return func(e *Engine) { e.maxEvents = n }
}

// WithClock sets the time source used for year-less dates and for the sort
// key of unparsable dates.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the engine's logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxEvents: DefaultMaxEvents,
		clock:     time.Now,
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect parses htmlText and extracts events from it. Relative links are
// resolved against baseURL.
func (e *Engine) Detect(htmlText, baseURL string) (*Result, error) {
	doc, err := dom.ParseString(htmlText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return e.DetectDocument(doc, baseURL), nil
}

// DetectDocument extracts events from an already parsed document.
func (e *Engine) DetectDocument(doc dom.Document, baseURL string) *Result {
	run := NewRun(doc, baseURL, e.clock())
	run.log = e.log

	var candidates []*event.Event
	for _, s := range Strategies {
		found := s.Detect(run)
		e.log.Debug("Strategy finished", logger.Fields{
			"strategy":   string(s.Source),
			"candidates": len(found),
			"seen":       run.Seen.Len(),
			"url":        baseURL,
		})
		candidates = append(candidates, found...)
	}

	events := Aggregate(candidates, e.maxEvents)
	result := &Result{
		Events:     events,
		Count:      len(events),
		Found:      len(candidates),
		Strategies: contributing(events),
	}
	result.Method = method(result.Strategies)
	return result
}

// contributing lists the sources present in events, in strategy order.
func contributing(events []*event.Event) []event.Source {
	present := make(map[event.Source]bool)
	for _, evt := range events {
		present[evt.Source] = true
	}
	sources := make([]event.Source, 0, len(present))
	for _, s := range Strategies {
		if present[s.Source] {
			sources = append(sources, s.Source)
		}
	}
	return sources
}

func method(sources []event.Source) string {
	if len(sources) == 0 {
		return MethodHTMLAnalysis
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, " + ")
}
