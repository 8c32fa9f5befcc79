package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
)

const prodID = "-//event-scout//event-scout//EN"

// timedDuration is the length given to events with a start time.
const timedDuration = 2 * time.Hour

// Schedulable reports whether evt has a calendar date and can be exported.
func Schedulable(evt *event.Event) bool {
	_, err := time.Parse(event.DisplayLayout, evt.Date)
	return err == nil
}

// GenerateICS generates an iCalendar (.ics) file for a single event
func GenerateICS(evt *event.Event, now time.Time) string {
	var b strings.Builder
	_, _ = WriteICS(&b, []*event.Event{evt}, "", now)
	return b.String()
}

// WriteICS writes one calendar holding every schedulable event and returns
// how many were written. Events without a calendar date are skipped. A
// non-empty name is set as the calendar's display name.
func WriteICS(w io.Writer, events []*event.Event, name string, now time.Time) (int, error) {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}

	written := 0
	for _, evt := range events {
		if evt == nil || !Schedulable(evt) {
			continue
		}
		writeEvent(&ics, evt, now)
		written++
	}

	ics.WriteString("END:VCALENDAR\r\n")

	if _, err := io.WriteString(w, ics.String()); err != nil {
		return 0, fmt.Errorf("writing calendar: %w", err)
	}
	return written, nil
}

func writeEvent(ics *strings.Builder, evt *event.Event, now time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, "UID:"+evt.ID+"@event-scout")
	writeLine(ics, "DTSTAMP:"+formatICSTime(now))

	day := time.UnixMilli(evt.DateSortKey).UTC()
	if h, m, ok := parseClock(evt.Time); ok {
		start := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
		writeLine(ics, "DTSTART:"+formatLocalTime(start))
		writeLine(ics, "DTEND:"+formatLocalTime(start.Add(timedDuration)))
	} else {
		writeLine(ics, "DTSTART;VALUE=DATE:"+day.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format("20060102"))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(evt.Name))
	if evt.HasDescription() {
		writeLine(ics, "DESCRIPTION:"+escapeICS(evt.Description))
	}
	if evt.HasLocation() {
		writeLine(ics, "LOCATION:"+escapeICS(evt.Location))
	}
	if evt.URL != "" {
		writeLine(ics, "URL:"+evt.URL)
	}
	writeLine(ics, "CATEGORIES:"+escapeICS(string(evt.Source)))
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// writeLine folds content lines longer than 75 octets per RFC 5545.
func writeLine(ics *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut] + "\r\n ")
		line = line[cut:]
		limit = 74 // continuation lines start with a space
	}
	ics.WriteString(line + "\r\n")
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// parseClock reads times such as "7:30 PM", "7:30pm", "7:30 p.m." or "19:30".
func parseClock(s string) (hour, minute int, ok bool) {
	s = strings.ToUpper(strings.NewReplacer(".", "", " ", "").Replace(s))
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range []string{"3:04PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocalTime formats a floating (zone-less) datetime; page times carry no zone.
func formatLocalTime(t time.Time) string {
	return t.Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
