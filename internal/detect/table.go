package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/extract"
)

const cellSeparator = " | "

var (
	roomLabel = regexp.MustCompile(`(?i)^(?:room|rm|suite|ste|bldg|building|floor|fl|level|hall|lab|studio)(?:\.?\s*#?\s*\d+[a-z]?|\.?\s+[\w-]{1,6})?$|^#?\d+[a-z]?$|^[a-z]-?\d+[a-z]?$`)

	locationHeader = regexp.MustCompile(`(?i)\b(?:location|venue|where|place|room|address)\b`)
	timeHeader     = regexp.MustCompile(`(?i)\b(?:time|hours?)\b`)
)

type columnRoles struct {
	location int
	time     int
}

// Table turns table rows that mention a date into candidates.
func Table(r *Run) []*event.Event {
	var out []*event.Event
	for _, table := range r.Doc.Find("table") {
		roles := headerRoles(table)
		for _, row := range table.Find("tr") {
			if owner, ok := row.Closest("table"); !ok || owner.Key() != table.Key() {
				continue // nested table, visited on its own
			}
			if isHeaderRow(row) || r.claimedAncestor(row) {
				continue
			}
			// Layout rows wrapping another table are not events themselves.
			if len(row.Find("table")) > 0 {
				continue
			}
			if evt, ok := r.tableRow(row, roles); ok {
				r.claim(row)
				out = append(out, evt)
			}
		}
	}
	return out
}

func (r *Run) tableRow(row dom.Node, roles columnRoles) (*event.Event, bool) {
	cells := rowCells(row)
	texts := make([]string, len(cells))
	for i, c := range cells {
		texts[i] = event.CleanText(c.Text())
	}

	date := event.ExtractDateAt(strings.Join(texts, " "), r.Now)
	if !date.Found() {
		return nil, false
	}

	nameIdx := -1
	for i, text := range texts {
		if i == roles.location || i == roles.time {
			continue
		}
		if isNameCell(text) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, false
	}

	var rest []string
	for i, text := range texts {
		if i != nameIdx && text != "" {
			rest = append(rest, text)
		}
	}
	desc := event.NoDescription
	if len(rest) > 0 {
		desc = event.Truncate(strings.Join(rest, cellSeparator), TextDescriptionLimit)
	}

	loc := event.LocationNotSpecified
	if roles.location >= 0 && roles.location < len(texts) && texts[roles.location] != "" {
		loc = texts[roles.location]
	}

	tm := ""
	if roles.time >= 0 && roles.time < len(texts) {
		tm = event.ExtractTime(texts[roles.time])
		if tm == "" && event.IsTimeOfDay(texts[roles.time]) {
			tm = texts[roles.time]
		}
	}
	if tm == "" {
		tm = event.ExtractTime(strings.Join(texts, " "))
	}

	return r.insert(event.SourceTable, extract.Fields{
		Name:        texts[nameIdx],
		Date:        date,
		Time:        tm,
		Description: desc,
		Location:    loc,
		URL:         extract.URL(row, r.BaseURL),
	})
}

// isNameCell accepts cells that can stand as a title: not a date, a time of
// day or a bare room label.
func isNameCell(text string) bool {
	if !event.ValidName(text) || utf8.RuneCountInString(text) >= maxNameLength {
		return false
	}
	if event.IsJustDate(text) || event.IsTimeOfDay(text) {
		return false
	}
	return !roomLabel.MatchString(text)
}

func rowCells(row dom.Node) []dom.Node {
	var cells []dom.Node
	for _, c := range row.Children() {
		if tag := c.Tag(); tag == "td" || tag == "th" {
			cells = append(cells, c)
		}
	}
	return cells
}

func isHeaderRow(row dom.Node) bool {
	if _, ok := row.Closest("thead"); ok {
		return true
	}
	cells := rowCells(row)
	if len(cells) == 0 {
		return true
	}
	for _, c := range cells {
		if c.Tag() != "th" {
			return false
		}
	}
	return true
}

// headerRoles maps location and time columns from the table's first header row.
func headerRoles(table dom.Node) columnRoles {
	roles := columnRoles{location: -1, time: -1}
	for _, row := range table.Find("tr") {
		if owner, ok := row.Closest("table"); !ok || owner.Key() != table.Key() {
			continue
		}
		if !isHeaderRow(row) {
			continue
		}
		for i, c := range rowCells(row) {
			text := event.CleanText(c.Text())
			switch {
			case roles.location < 0 && locationHeader.MatchString(text):
				roles.location = i
			case roles.time < 0 && timeHeader.MatchString(text) && !strings.Contains(strings.ToLower(text), "date"):
				roles.time = i
			}
		}
		break
	}
	return roles
}
