package detect

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

// schema.org Event subtypes whose names do not end in "Event".
var extraEventTypes = map[string]bool{
	"Festival":    true,
	"Hackathon":   true,
	"EventSeries": true,
}

// StructuredData reads schema.org events from JSON-LD script blocks.
// Malformed blocks are skipped.
func StructuredData(r *Run) []*event.Event {
	var out []*event.Event
	for i, script := range r.Doc.Find(`script[type="application/ld+json"]`) {
		raw := strings.TrimSpace(script.Text())
		if raw == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			r.log.Debug("Skipping malformed JSON-LD block", logger.Fields{"block": i, "error": err.Error()})
			continue
		}
		walkJSONLD(doc, func(node map[string]any) {
			if evt, ok := r.insert(event.SourceStructuredData, r.jsonLDFields(node)); ok {
				out = append(out, evt)
			}
		})
	}
	return out
}

// walkJSONLD visits every object typed as an event, parents before children.
// Object keys are walked in sorted order so output does not depend on map
// iteration.
func walkJSONLD(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case map[string]any:
		if isEventType(t["@type"]) || isEventType(t["type"]) {
			visit(t)
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkJSONLD(t[k], visit)
		}
	case []any:
		for _, item := range t {
			walkJSONLD(item, visit)
		}
	}
}

func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		name := schemaTypeName(t)
		return strings.HasSuffix(name, "Event") || extraEventTypes[name]
	case []any:
		for _, item := range t {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func hasType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return schemaTypeName(t) == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && schemaTypeName(s) == want {
				return true
			}
		}
	}
	return false
}

// schemaTypeName strips vocabulary prefixes such as "http://schema.org/".
func schemaTypeName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, "/:#"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func (r *Run) jsonLDFields(node map[string]any) extract.Fields {
	name := scalarText(node["name"])
	if name == "" {
		name = scalarText(node["summary"])
	}

	start := scalarText(node["startDate"])
	if start == "" {
		start = scalarText(node["startTime"])
	}
	date := event.ExtractDateAt(start, r.Now)
	if start == "" {
		date = event.DateMatch{Formatted: event.DateNotFound}
	}

	desc := event.NoDescription
	if d := event.CleanText(scalarText(node["description"])); d != "" {
		desc = event.Truncate(d, StructuredDescriptionLimit)
	}

	loc := locationText(node["location"])
	if loc == "" {
		loc = event.LocationNotSpecified
	}

	link := r.BaseURL
	if u := scalarText(node["url"]); u != "" {
		link = extract.ResolveURL(u, r.BaseURL)
	}

	return extract.Fields{
		Name:        name,
		Date:        date,
		Time:        event.ExtractTime(start),
		Description: desc,
		Location:    loc,
		URL:         link,
	}
}

// scalarText reduces a JSON-LD value to text: strings as-is, typed values
// through "@value", arrays through their first usable element.
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		if inner, ok := t["@value"]; ok {
			return scalarText(inner)
		}
	case []any:
		for _, item := range t {
			if s := scalarText(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func locationText(v any) string {
	switch t := v.(type) {
	case string:
		return event.CleanText(t)
	case []any:
		for _, item := range t {
			if s := locationText(item); s != "" {
				return s
			}
		}
	case map[string]any:
		name := event.CleanText(scalarText(t["name"]))
		if hasType(t, "VirtualLocation") {
			if name != "" {
				return name
			}
			return "Online"
		}
		return joinParts(name, addressText(t["address"]))
	}
	return ""
}

var addressKeys = []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"}

func addressText(v any) string {
	switch t := v.(type) {
	case string:
		return event.CleanText(t)
	case []any:
		for _, item := range t {
			if s := addressText(item); s != "" {
				return s
			}
		}
	case map[string]any:
		var parts []string
		for _, k := range addressKeys {
			val := t[k]
			if m, ok := val.(map[string]any); ok {
				if _, typed := m["@value"]; !typed {
					val = m["name"]
				}
			}
			parts = append(parts, event.CleanText(scalarText(val)))
		}
		return joinParts(parts...)
	}
	return ""
}

// joinParts joins the non-empty, non-repeated parts with ", ".
func joinParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		dup := false
		for _, k := range kept {
			if strings.EqualFold(k, p) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
