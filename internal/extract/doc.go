// Package extract pulls the name, date, time, description, location and link
// of an event out of a candidate container element.
//
// Every extractor walks a prioritized selector list and falls back to scanning
// the container's text. Extraction never fails: missing fields come back as
// the sentinels defined in package event.
package extract
