package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/event-scout/internal/calendar"
	"github.com/pfrederiksen/event-scout/internal/event"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatICS  Format = "ics"
)

// SheetName is the worksheet holding exported events.
const SheetName = "Events"

// ErrNoEvents is returned when there is nothing to export.
var ErrNoEvents = errors.New("no events to export")

// Column is one exported field.
type Column struct {
	Header string
	Width  float64
	value  func(*event.Event) string
}

// Columns lists the exported fields in output order.
var Columns = []Column{
	{"Event Name", 30, func(e *event.Event) string { return e.Name }},
	{"Date", 15, func(e *event.Event) string { return e.Date }},
	{"Time", 10, func(e *event.Event) string { return e.Time }},
	{"Location", 25, func(e *event.Event) string { return e.Location }},
	{"Description", 50, func(e *event.Event) string { return e.Description }},
	{"Source", 20, func(e *event.Event) string { return string(e.Source) }},
	{"Confidence", 10, func(e *event.Event) string { return string(e.Confidence) }},
	{"URL", 30, func(e *event.Event) string { return e.URL }},
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatICS:
		return "text/calendar; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(filepath.Ext(s), "."))
	if name == "" {
		name = strings.ToLower(s)
	}
	switch Format(name) {
	case FormatXLSX, FormatCSV, FormatICS:
		return Format(name), nil
	}
	return "", fmt.Errorf("unsupported export format %q (want xlsx, csv or ics)", s)
}

// DefaultFileName returns Events_<YYYY-MM-DD>.<ext>.
func DefaultFileName(f Format, now time.Time) string {
	return fmt.Sprintf("Events_%s.%s", now.Format("2006-01-02"), f)
}

// Write renders events in format f to w.
func Write(w io.Writer, f Format, events []*event.Event, now time.Time) error {
	if len(events) == 0 {
		return ErrNoEvents
	}
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, events)
	case FormatCSV:
		return WriteCSV(w, events)
	case FormatICS:
		n, err := calendar.WriteICS(w, events, "Events", now)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: none of the events has a calendar date", ErrNoEvents)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Render is Write into a byte slice.
func Render(f Format, events []*event.Event, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, events, now); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders events to path, choosing the format from its extension.
func WriteFile(path string, events []*event.Event, now time.Time) error {
	f, err := ParseFormat(path)
	if err != nil {
		return err
	}
	data, err := Render(f, events, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func headers() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Header
	}
	return out
}

func record(evt *event.Event) []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.value(evt)
	}
	return out
}

// WriteCSV writes a header row followed by one row per event.
func WriteCSV(w io.Writer, events []*event.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, evt := range events {
		if err := cw.Write(record(evt)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a single Events sheet.
func WriteXLSX(w io.Writer, events []*event.Event) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, c := range Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, c.Width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	if err := setRow(f, 1, headers()); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, evt := range events {
		if err := setRow(f, i+2, record(evt)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
