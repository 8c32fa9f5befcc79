package extract

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
)

const (
	maxNameLength     = 200
	minFirstLine      = 5
	minLocationLength = 3
	maxLocationLength = 200
)

var (
	headingSelectors = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

	titleSelectors = []string{
		".calEventTitle", ".event-title", ".event-name", ".title", ".name",
		`[class*="title"]`, `[class*="name"]`, `[itemprop="name"]`,
	}

	emphasisSelectors = []string{"strong", "b"}

	dateSelectors = []string{
		".calEventDate", ".event-date", ".date", `[class*="date"]`, "time",
	}

	timeSelectors = []string{
		".calEventTime", ".event-time", ".time", `[class*="time"]`,
	}

	descriptionSelectors = []string{
		".calEventDescription", ".event-description", ".description", ".summary", ".excerpt",
		`[class*="description"]`, `[class*="summary"]`, `[itemprop="description"]`,
	}

	locationSelectors = []string{
		".calEventLocation", ".event-location", ".location", ".venue", ".address",
		`[class*="location"]`, `[class*="venue"]`, `[class*="address"]`,
	}
)

// Options controls a single field extraction pass.
type Options struct {
	BaseURL string
	Now     time.Time
	// DateHint skips the date lookup when a strategy already found the date.
	DateHint *event.DateMatch
	// DescriptionLimit bounds the description in runes; zero means no bound.
	DescriptionLimit int
}

// Fields holds everything extracted from one candidate container.
type Fields struct {
	Name        string
	Date        event.DateMatch
	Time        string
	Description string
	Location    string
	URL         string
}

// Extract runs every field extractor over n.
func Extract(n dom.Node, opts Options) Fields {
	f := Fields{Name: Name(n)}
	if opts.DateHint != nil {
		f.Date = *opts.DateHint
	} else {
		f.Date = Date(n, opts.Now)
	}
	f.Time = Time(n)
	f.Description = Description(n, f.Name, f.Date, opts.DescriptionLimit)
	f.Location = Location(n)
	f.URL = URL(n, opts.BaseURL)
	return f
}

// Name returns the most title-like text inside n, or "" when nothing
// qualifies.
func Name(n dom.Node) string {
	for _, group := range [][]string{headingSelectors, titleSelectors, emphasisSelectors} {
		for _, sel := range group {
			for _, m := range n.Find(sel) {
				if name, ok := acceptName(m.Text()); ok {
					return name
				}
			}
		}
	}

	if anchors := n.Find("a"); len(anchors) > 0 {
		if name, ok := acceptName(anchors[0].Text()); ok {
			return name
		}
	}
	if title, ok := n.Attr("title"); ok {
		if name, ok := acceptName(title); ok {
			return name
		}
	}
	if name, ok := acceptName(event.FirstLine(n.Text(), minFirstLine)); ok {
		return name
	}
	return ""
}

func acceptName(text string) (string, bool) {
	name := event.CleanText(text)
	if !event.ValidName(name) || utf8.RuneCountInString(name) >= maxNameLength {
		return "", false
	}
	// A bare date is never a title.
	if event.IsJustDate(name) {
		return "", false
	}
	return name, true
}

// Date prefers machine-readable datetime attributes, then date-classed
// elements, then the whole text of n.
func Date(n dom.Node, now time.Time) event.DateMatch {
	candidates := []dom.Node{n}
	candidates = append(candidates, n.Find("[datetime]")...)
	for _, c := range candidates {
		if v, ok := c.Attr("datetime"); ok {
			if m := event.ExtractDateAt(v, now); m.Found() {
				return m
			}
		}
	}

	for _, sel := range dateSelectors {
		for _, m := range n.Find(sel) {
			if d := event.ExtractDateAt(m.Text(), now); d.Found() {
				return d
			}
		}
	}

	return event.ExtractDateAt(event.CleanText(n.Text()), now)
}

// Time returns the first clock time found in a time-classed element, a
// datetime attribute or the text of n.
func Time(n dom.Node) string {
	for _, sel := range timeSelectors {
		for _, m := range n.Find(sel) {
			if t := event.ExtractTime(m.Text()); t != "" {
				return t
			}
		}
	}
	if t := event.ExtractTime(event.CleanText(n.Text())); t != "" {
		return t
	}
	for _, m := range n.Find("[datetime]") {
		v, _ := m.Attr("datetime")
		if t := event.ExtractTime(v); t != "" {
			return t
		}
	}
	return ""
}

// Description returns summary text for n that does not repeat the name or
// the date, bounded to limit runes.
func Description(n dom.Node, name string, date event.DateMatch, limit int) string {
	desc := ""
	for _, sel := range descriptionSelectors {
		for _, m := range n.Find(sel) {
			if text := event.CleanText(m.Text()); text != "" {
				desc = text
				break
			}
		}
		if desc != "" {
			break
		}
	}

	if desc == "" {
		for _, p := range n.Find("p") {
			text := event.CleanText(p.Text())
			if text != "" && text != name && !event.IsJustDate(text) {
				desc = text
				break
			}
		}
	}

	if desc == "" {
		desc = remainderText(n, name, date)
	}

	if desc == "" {
		return event.NoDescription
	}
	return event.Truncate(desc, limit)
}

// remainderText joins the text pieces of n that overlap neither the name
// nor the date.
func remainderText(n dom.Node, name string, date event.DateMatch) string {
	pieces := []string{event.CleanText(n.OwnText())}
	for _, c := range n.Children() {
		pieces = append(pieces, event.CleanText(c.Text()))
	}

	var kept []string
	for _, p := range pieces {
		if p == "" || overlaps(p, name) || (date.Found() && strings.Contains(p, date.Raw)) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, " ")
}

func overlaps(piece, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(piece, name) || strings.Contains(name, piece)
}

// Location returns the first location-classed text of acceptable length.
func Location(n dom.Node) string {
	for _, sel := range locationSelectors {
		for _, m := range n.Find(sel) {
			text := event.CleanText(m.Text())
			if l := utf8.RuneCountInString(text); l >= minLocationLength && l <= maxLocationLength {
				return text
			}
		}
	}
	return event.LocationNotSpecified
}

// URL resolves the first link in n against baseURL.
func URL(n dom.Node, baseURL string) string {
	if n.Tag() == "a" {
		if href, ok := n.Attr("href"); ok {
			return ResolveURL(href, baseURL)
		}
	}
	for _, a := range n.Find("a[href]") {
		href, _ := a.Attr("href")
		return ResolveURL(href, baseURL)
	}
	return baseURL
}
