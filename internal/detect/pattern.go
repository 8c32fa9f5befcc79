package detect

import (
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
)

// Container text bounds, in runes. Anything longer is a listing or a page
// section rather than one event.
const (
	minContainerText = 30
	maxContainerText = 2000
)

// Container selectors in priority order. The specific tier always runs; the
// generic tier only runs when the specific tier produced nothing.
var (
	specificSelectors = []string{
		".eventList li", ".event-list li", ".calendar-events li",
		".event-item", ".event-card", ".event-listing", ".event",
		".conference", ".workshop", ".calendar-event",
		`[class*="event"]`, `[class*="Event"]`, `[class*="conference"]`, `[class*="workshop"]`,
	}

	genericSelectors = []string{
		".listing-item", ".card", ".entry", ".post", ".item", "article",
	}

	anyContainerSelector = strings.Join(append(append([]string{}, specificSelectors...), genericSelectors...), ", ")
)

// Pattern finds event containers by common class-name conventions.
func Pattern(r *Run) []*event.Event {
	out := r.patternTier(specificSelectors, false)
	if len(out) == 0 {
		out = r.patternTier(genericSelectors, true)
	}
	return out
}

func (r *Run) patternTier(selectors []string, filtered bool) []*event.Event {
	var out []*event.Event
	for _, sel := range selectors {
		for _, c := range r.Doc.Find(sel) {
			if isPageRoot(c) || r.claimedAncestor(c) || r.wrapsClaimed(c) {
				continue
			}
			size := utf8.RuneCountInString(event.CleanText(c.Text()))
			if size < minContainerText || size > maxContainerText {
				continue
			}
			if wrapsContainer(c, sel) || r.holdsSeveralEvents(c) {
				continue
			}
			// Generic containers need corroboration that they hold an event.
			if filtered && !LooksLikeEvent(c) {
				continue
			}

			f := extract.Extract(c, extract.Options{
				BaseURL:          r.BaseURL,
				Now:              r.Now,
				DescriptionLimit: PatternDescriptionLimit,
			})
			if evt, ok := r.insert(event.SourcePattern, f); ok {
				r.claim(c)
				out = append(out, evt)
			}
		}
	}
	return out
}

// wrapsContainer reports whether c holds another sizeable match of the same
// selector, in which case the inner match is the real container.
func wrapsContainer(c dom.Node, sel string) bool {
	for _, inner := range c.Find(sel) {
		if utf8.RuneCountInString(event.CleanText(inner.Text())) >= minContainerText {
			return true
		}
	}
	return false
}

// holdsSeveralEvents reports whether c is a listing: it holds two or more
// separate dated blocks, each either a sizeable container match or the
// element around a heading. The blocks are then extracted on their own.
func (r *Run) holdsSeveralEvents(c dom.Node) bool {
	self := c.Key()
	blocks := make(map[any]dom.Node)
	add := func(n dom.Node, minText int) {
		if n.Key() == self {
			return
		}
		text := event.CleanText(n.Text())
		if utf8.RuneCountInString(text) < minText || !event.ExtractDateAt(text, r.Now).Found() {
			return
		}
		blocks[n.Key()] = n
	}

	for _, n := range c.Find(anyContainerSelector) {
		add(n, minContainerText)
	}
	for _, h := range c.Find(headingSelector) {
		if p, ok := h.Parent(); ok {
			add(p, 0)
		}
	}

	// A block wrapping another block is itself a listing; count the leaves.
	wrapping := make(map[any]bool)
	for _, n := range blocks {
		for cur, ok := n.Parent(); ok && cur.Key() != self; cur, ok = cur.Parent() {
			if _, in := blocks[cur.Key()]; in {
				wrapping[cur.Key()] = true
			}
		}
	}
	return len(blocks)-len(wrapping) >= 2
}

// wrapsClaimed reports whether a claimed container sits inside c.
func (r *Run) wrapsClaimed(c dom.Node) bool {
	key := c.Key()
	for _, n := range c.Find("*") {
		if r.claimed[n.Key()] && n.Key() != key {
			return true
		}
	}
	return false
}
