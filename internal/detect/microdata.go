package detect

import (
	"strings"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
)

const itemScope = "[itemscope],[itemtype]"

// Microdata reads items whose itemtype names an event.
func Microdata(r *Run) []*event.Event {
	var out []*event.Event
	for _, item := range r.Doc.Find("[itemtype]") {
		itemType, _ := item.Attr("itemtype")
		if !strings.Contains(strings.ToLower(itemType), "event") {
			continue
		}
		if evt, ok := r.insert(event.SourceMicrodata, r.microdataFields(item)); ok {
			r.claim(item)
			out = append(out, evt)
		}
	}
	return out
}

func (r *Run) microdataFields(item dom.Node) extract.Fields {
	name := ""
	if p, ok := ownProp(item, "name"); ok {
		name = event.CleanText(propValue(p))
	}
	if name == "" {
		name = extract.Name(item)
	}

	var date event.DateMatch
	start := ""
	if p, ok := ownProp(item, "startDate"); ok {
		start = propValue(p)
		date = event.ExtractDateAt(start, r.Now)
	} else {
		date = extract.Date(item, r.Now)
	}

	t := event.ExtractTime(start)
	if t == "" {
		t = extract.Time(item)
	}

	desc := event.NoDescription
	if p, ok := ownProp(item, "description"); ok {
		if d := event.CleanText(propValue(p)); d != "" {
			desc = event.Truncate(d, StructuredDescriptionLimit)
		}
	}

	loc := event.LocationNotSpecified
	if p, ok := ownProp(item, "location"); ok {
		if l := microdataLocation(p); l != "" {
			loc = l
		}
	}

	link := extract.URL(item, r.BaseURL)
	if p, ok := ownProp(item, "url"); ok {
		if u := propValue(p); u != "" {
			link = extract.ResolveURL(u, r.BaseURL)
		}
	}

	return extract.Fields{
		Name:        name,
		Date:        date,
		Time:        t,
		Description: desc,
		Location:    loc,
		URL:         link,
	}
}

// ownProp finds the first itemprop named prop that belongs to item itself
// rather than to an item nested inside it.
func ownProp(item dom.Node, prop string) (dom.Node, bool) {
	for _, p := range item.Find(`[itemprop~="` + prop + `"]`) {
		parent, ok := p.Parent()
		if !ok {
			continue
		}
		if scope, ok := parent.Closest(itemScope); ok && scope.Key() == item.Key() {
			return p, true
		}
	}
	return nil, false
}

// propValue reads an itemprop value: content, then datetime, then href or
// src, then text.
func propValue(p dom.Node) string {
	for _, attr := range []string{"content", "datetime", "href", "src"} {
		if v, ok := p.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return event.CleanText(p.Text())
}

func microdataLocation(p dom.Node) string {
	if !p.Is(itemScope) {
		return event.CleanText(propValue(p))
	}
	name := ""
	if n, ok := ownProp(p, "name"); ok {
		name = event.CleanText(propValue(n))
	}
	addr := ""
	if a, ok := ownProp(p, "address"); ok {
		if a.Is(itemScope) {
			var parts []string
			for _, k := range addressKeys {
				if part, ok := ownProp(a, k); ok {
					parts = append(parts, event.CleanText(propValue(part)))
				}
			}
			addr = joinParts(parts...)
		} else {
			addr = event.CleanText(propValue(a))
		}
	}
	if l := joinParts(name, addr); l != "" {
		return l
	}
	return event.CleanText(p.Text())
}
