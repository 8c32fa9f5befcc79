package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the canonical rendering of a parsed date.
const DisplayLayout = "January 2, 2006"

// maxRawDateLength caps an unparsable raw match used as the display date.
const maxRawDateLength = 50

const (
	monthExpr   = `(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`
	weekdayExpr = `(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*`
	ordinalExpr = `(?:st|nd|rd|th)?`
)

// DateMatch is the result of scanning text for a date.
type DateMatch struct {
	Raw       string // matched substring, empty when nothing matched
	Formatted string // "Month D, YYYY", the capped raw text, or DateNotFound
	SortKey   int64  // epoch milliseconds
	Parsed    bool   // Raw resolved to a real calendar date
}

// Found reports whether any date pattern matched.
func (m DateMatch) Found() bool {
	return m.Raw != ""
}

type datePattern struct {
	re    *regexp.Regexp
	parse func(groups []string, now time.Time) (time.Time, bool)
}

// datePatterns are tried in order; the first pattern with a match wins.
var datePatterns = []datePattern{
	{ // 04/15/2025
		re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		parse: func(g []string, _ time.Time) (time.Time, bool) {
			return numericDate(g[3], g[1], g[2])
		},
	},
	{ // 04-15-2025
		re: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		parse: func(g []string, _ time.Time) (time.Time, bool) {
			return numericDate(g[3], g[1], g[2])
		},
	},
	{ // 2025-04-15, also the date part of an ISO timestamp
		re: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`),
		parse: func(g []string, _ time.Time) (time.Time, bool) {
			return numericDate(g[1], g[2], g[3])
		},
	},
	{ // April 15, 2025 / Apr. 15th 2025
		re: regexp.MustCompile(`(?i)\b` + monthExpr + `\.?\s+(\d{1,2})` + ordinalExpr + `,?\s+(\d{4})\b`),
		parse: func(g []string, _ time.Time) (time.Time, bool) {
			return namedDate(g[3], g[1], g[2])
		},
	},
	{ // 15 April 2025 / 15th Apr, 2025
		re: regexp.MustCompile(`(?i)\b(\d{1,2})` + ordinalExpr + `\s+` + monthExpr + `\.?,?\s+(\d{4})\b`),
		parse: func(g []string, _ time.Time) (time.Time, bool) {
			return namedDate(g[3], g[2], g[1])
		},
	},
	{ // Tuesday, April 15 (year optional)
		re: regexp.MustCompile(`(?i)\b` + weekdayExpr + `\.?,?\s+` + monthExpr + `\.?\s+(\d{1,2})` + ordinalExpr + `\b(?:,?\s+(\d{4})\b)?`),
		parse: func(g []string, now time.Time) (time.Time, bool) {
			year := g[3]
			if year == "" {
				year = strconv.Itoa(now.Year())
			}
			return namedDate(year, g[1], g[2])
		},
	},
}

// wholeDatePatterns recognise strings that are nothing but a date.
var wholeDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}$`),
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
	regexp.MustCompile(`(?i)^(?:` + weekdayExpr + `\.?,?\s+)?` + monthExpr + `\.?\s+\d{1,2}` + ordinalExpr + `(?:,?\s+\d{4})?$`),
	regexp.MustCompile(`(?i)^(?:` + weekdayExpr + `\.?,?\s+)?\d{1,2}` + ordinalExpr + `\s+` + monthExpr + `\.?,?(?:\s+\d{4})?$`),
	regexp.MustCompile(`(?i)^` + monthExpr + `\.?,?\s+\d{4}$`),
}

var (
	timePattern      = regexp.MustCompile(`(?i)(?:^|[^\d:])(\d{1,2}):(\d{2})(\s*[ap]\.?m\b\.?)?`)
	timeOfDayPattern = regexp.MustCompile(`(?i)^\d{1,2}(?::\d{2})?\s*(?:[ap]\.?m\.?)?(?:\s*(?:-|–|to)\s*\d{1,2}(?::\d{2})?\s*(?:[ap]\.?m\.?)?)?$`)
	meridiemPattern  = regexp.MustCompile(`(?i)[ap]\.?m`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractDate scans text for the first date it recognises, using the
// current time for year-less dates and for the sort key of dates that
// matched a pattern but could not be parsed.
func ExtractDate(text string) DateMatch {
	return ExtractDateAt(text, time.Now())
}

// ExtractDateAt is ExtractDate with an explicit clock.
func ExtractDateAt(text string, now time.Time) DateMatch {
	for _, p := range datePatterns {
		groups := p.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		raw := strings.TrimSpace(groups[0])
		if t, ok := p.parse(groups, now); ok {
			return DateMatch{
				Raw:       raw,
				Formatted: t.Format(DisplayLayout),
				SortKey:   t.UnixMilli(),
				Parsed:    true,
			}
		}
		// Present but unparsable dates sort as "now", not as "never".
		formatted := raw
		if r := []rune(formatted); len(r) > maxRawDateLength {
			formatted = string(r[:maxRawDateLength])
		}
		return DateMatch{
			Raw:       raw,
			Formatted: formatted,
			SortKey:   now.UnixMilli(),
		}
	}
	return DateMatch{Formatted: DateNotFound}
}

// ExtractTime returns the first clock time (H:MM with optional AM/PM) in text.
func ExtractTime(text string) string {
	for _, groups := range timePattern.FindAllStringSubmatch(text, -1) {
		hour, _ := strconv.Atoi(groups[1])
		minute, _ := strconv.Atoi(groups[2])
		if hour > 23 || minute > 59 {
			continue
		}
		return strings.TrimSpace(groups[1] + ":" + groups[2] + groups[3])
	}
	return ""
}

// IsJustDate reports whether the whole trimmed string is a date.
func IsJustDate(text string) bool {
	text = CleanText(text)
	if text == "" {
		return false
	}
	for _, re := range wholeDatePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsTimeOfDay reports whether the whole trimmed string is a clock time or
// time range such as "7:30 PM" or "9am - 11am".
func IsTimeOfDay(text string) bool {
	text = CleanText(text)
	if !timeOfDayPattern.MatchString(text) {
		return false
	}
	return strings.Contains(text, ":") || meridiemPattern.MatchString(text)
}

func numericDate(year, month, day string) (time.Time, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, false
	}
	return calendarDate(y, m, d)
}

func namedDate(year, month, day string) (time.Time, bool) {
	name := strings.ToLower(month)
	if len(name) < 3 {
		return time.Time{}, false
	}
	m, ok := monthsByPrefix[name[:3]]
	if !ok {
		return time.Time{}, false
	}
	y, errY := strconv.Atoi(year)
	d, errD := strconv.Atoi(day)
	if errY != nil || errD != nil {
		return time.Time{}, false
	}
	return calendarDate(y, int(m), d)
}

// calendarDate rejects dates time.Date would silently normalise (e.g. 02/30).
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
