package event

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Sentinels used when a field could not be extracted.
const (
	DateNotFound         = "Date not found"
	LocationNotSpecified = "Location not specified"
	NoDescription        = "No description available"
)

// MaxSignatureLength bounds the dedup key.
const MaxSignatureLength = 200

// Source identifies which detection strategy produced an event.
type Source string

const (
	SourceStructuredData Source = "Structured Data"
	SourceMicrodata      Source = "Microdata"
	SourcePattern        Source = "Pattern Detection"
	SourceFreeText       Source = "Text Pattern"
	SourceTable          Source = "Table Row"
)

// Event represents a single event candidate detected on a page
type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	DateSortKey int64      `json:"date_sort_key"` // epoch milliseconds, ordering only
	Time        string     `json:"time,omitempty"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	Source      Source     `json:"source"`
	Confidence  Confidence `json:"confidence"`
}

// idNamespace scopes candidate IDs so they never collide with other UUIDv5 users.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pfrederiksen/event-scout/candidate"))

// GenerateID creates a deterministic ID for a candidate. seq is the insertion
// order within a detection run, which keeps IDs unique inside that run while
// letting identical input produce identical output.
func GenerateID(source Source, seq int, signature string) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s|%d|%s", source, seq, signature))).String()
}

// NormalizeName folds a name into the form used for dedup comparisons:
// NFKC-normalized, lowercased, trimmed, with internal whitespace collapsed.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// maxSignatureDate bounds the date part of a signature, which is short
// unless an unparsable raw date was kept.
const maxSignatureDate = 64

// Signature returns the (normalized name, date) dedup key, bounded to
// MaxSignatureLength runes. Only the name is cut, so a long name on two
// different dates still yields two keys.
func Signature(name, date string) string {
	datePart := "|" + clip(strings.TrimSpace(date), maxSignatureDate)
	return clip(NormalizeName(name), MaxSignatureLength-utf8.RuneCountInString(datePart)) + datePart
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Signature returns the event's dedup key.
func (e *Event) Signature() string {
	return Signature(e.Name, e.Date)
}

// ValidName reports whether name can stand as an event title.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n > 3
}

// HasDate reports whether a date string was actually found.
func (e *Event) HasDate() bool {
	return e.Date != "" && e.Date != DateNotFound
}

// HasDescription reports whether a description was actually found.
func (e *Event) HasDescription() bool {
	return e.Description != "" && e.Description != NoDescription
}

// HasLocation reports whether a location was actually found.
func (e *Event) HasLocation() bool {
	return e.Location != "" && e.Location != LocationNotSpecified
}
