package detect

import (
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
)

const (
	minFreeTextContainer = 20
	maxFreeTextContainer = 1000
)

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true, "meta": true,
}

// FreeText scans text for dates outside tables and already claimed
// containers, promoting each hit to the surrounding container.
func FreeText(r *Run) []*event.Event {
	body, ok := r.Doc.Body()
	if !ok {
		return nil
	}

	visited := make(map[any]bool)
	var out []*event.Event
	for _, n := range body.Find("*") {
		if skippedTags[n.Tag()] {
			continue
		}
		own := event.CleanText(n.OwnText())
		if own == "" {
			continue
		}
		date := event.ExtractDateAt(own, r.Now)
		if !date.Found() {
			continue
		}
		// Table rows have their own strategy.
		if _, inTable := n.Closest("table"); inTable {
			continue
		}
		if r.claimedAncestor(n) || hasSkippedAncestor(n) {
			continue
		}

		c := promote(n)
		if visited[c.Key()] {
			continue
		}
		visited[c.Key()] = true

		size := utf8.RuneCountInString(event.CleanText(c.Text()))
		if size < minFreeTextContainer || size > maxFreeTextContainer {
			continue
		}
		if !LooksLikeEvent(c) {
			continue
		}

		f := extract.Extract(c, extract.Options{
			BaseURL:          r.BaseURL,
			Now:              r.Now,
			DateHint:         &date,
			DescriptionLimit: TextDescriptionLimit,
		})
		if evt, ok := r.insert(event.SourceFreeText, f); ok {
			r.claim(c)
			out = append(out, evt)
		}
	}
	return out
}

// promote picks the container that gives a date its context: the parent, or
// the grandparent when the parent is too small to hold anything else. The
// page body is never a container.
func promote(n dom.Node) dom.Node {
	parent, ok := n.Parent()
	if !ok || isPageRoot(parent) {
		return n
	}
	if utf8.RuneCountInString(event.CleanText(parent.Text())) >= minContainerText {
		return parent
	}
	grand, ok := parent.Parent()
	if !ok || isPageRoot(grand) {
		return parent
	}
	return grand
}

func isPageRoot(n dom.Node) bool {
	tag := n.Tag()
	return tag == "body" || tag == "html"
}

func hasSkippedAncestor(n dom.Node) bool {
	for cur, ok := n.Parent(); ok; cur, ok = cur.Parent() {
		if skippedTags[cur.Tag()] {
			return true
		}
	}
	return false
}
