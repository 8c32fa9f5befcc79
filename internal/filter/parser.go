package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
)

const monthNames = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\s*-\s*` + monthNames + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthNames + `$`)
	isoRange        = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*(?:\.\.|to)\s*(\d{4}-\d{2}-\d{2})$`)
)

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "Mar 1-15" or "March 1-15" - Same month, different days
//   - "March 1 - April 15" - Different months
//   - "March" - Entire month
//   - "2025-03-01..2025-04-15" - Explicit dates
//
// For month names the year is inferred from now: a month already past
// means next year, and a cross-month range whose end month is earlier than
// its start ends in the following year.
//
// Times are in UTC. Start time is at 00:00:00, end time is at 23:59:59.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := isoRange.FindStringSubmatch(input); m != nil {
		from, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[1])
		}
		to, err := time.Parse("2006-01-02", m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[2])
		}
		return rangeOf(from, to)
	}

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[3])
		if err != nil {
			return nil, nil, err
		}
		year := yearForMonth(month, now)
		return rangeOf(
			time.Date(year, month, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year, month, day2, 0, 0, 0, 0, time.UTC),
		)
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1, month2 := parseMonth(m[1]), parseMonth(m[3])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[4])
		if err != nil {
			return nil, nil, err
		}
		year1 := yearForMonth(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}
		return rangeOf(
			time.Date(year1, month1, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year2, month2, day2, 0, 0, 0, 0, time.UTC),
		)
	}

	if m := wholeMonth.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		year := yearForMonth(month, now)
		return rangeOf(
			time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC), // last day of month
		)
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use 'Mar 1-15', 'March 1 - April 15', 'March' or '2025-03-01..2025-03-15'")
}

// ParseConfidence accepts a tier name in any case.
func ParseConfidence(s string) (event.Confidence, error) {
	for _, c := range []event.Confidence{event.ConfidenceHigh, event.ConfidenceMedium, event.ConfidenceLow} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid confidence %q (want high, medium or low)", s)
}

func rangeOf(from, to time.Time) (*time.Time, *time.Time, error) {
	to = to.Add(24*time.Hour - time.Second)
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return day, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "sept" {
		name = "sep"
	}
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || name == full[:3] {
			return m
		}
	}
	return 0
}

// yearForMonth returns now's year, or the next one if month has already passed.
func yearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}
