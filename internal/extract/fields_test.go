package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/event-scout/internal/dom"
	"github.com/pfrederiksen/event-scout/internal/event"
)

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// container parses markup and returns its first div.
func container(t *testing.T, markup string) dom.Node {
	t.Helper()
	doc, err := dom.ParseString("<html><body>" + markup + "</body></html>")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	divs := doc.Find("div")
	if len(divs) == 0 {
		t.Fatal("markup has no div")
	}
	return divs[0]
}

func TestName(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "heading wins",
			markup: `<div><strong>Bold Text</strong><h2> Spring  Gala </h2></div>`,
			want:   "Spring Gala",
		},
		{
			name:   "calendar title class",
			markup: `<div><span class="calEventTitle">Board Meeting</span><b>Other</b></div>`,
			want:   "Board Meeting",
		},
		{
			name:   "date heading is rejected",
			markup: `<div><h3>June 1, 2025</h3><strong>Spring Gala</strong></div>`,
			want:   "Spring Gala",
		},
		{
			name:   "short heading is skipped",
			markup: `<div><h3>Go</h3><a href="/x">Jazz Night</a></div>`,
			want:   "Jazz Night",
		},
		{
			name:   "title attribute",
			markup: `<div title="Open House">x</div>`,
			want:   "Open House",
		},
		{
			name:   "first long line",
			markup: "<div>\n  ab\n  Jazz Night at the Park\n  April 1</div>",
			want:   "Jazz Night at the Park",
		},
		{
			name:   "overlong text yields nothing",
			markup: `<div><h2>` + strings.Repeat("x", 250) + `</h2></div>`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(container(t, tt.markup)); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "datetime attribute preferred over text",
			markup: `<div>Gala 04/01/2025 <time datetime="2025-03-10T19:00">Mar 10</time></div>`,
			want:   "March 10, 2025",
		},
		{
			name:   "date class preferred over text",
			markup: `<div>Posted 04/01/2025 <span class="event-date">Saturday, June 7</span></div>`,
			want:   "June 7, 2026",
		},
		{
			name:   "full text scan",
			markup: `<div>Gala on 04/01/2025</div>`,
			want:   "April 1, 2025",
		},
		{
			name:   "nothing found",
			markup: `<div>Coming soon</div>`,
			want:   event.DateNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Date(container(t, tt.markup), testNow); got.Formatted != tt.want {
				t.Errorf("Date() = %q, want %q", got.Formatted, tt.want)
			}
		})
	}
}

func TestTime(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{`<div><span class="time">7:30 PM</span></div>`, "7:30 PM"},
		{`<div>Doors at 6:00pm</div>`, "6:00pm"},
		{`<div><time datetime="2025-03-10T19:00">Mar 10</time></div>`, "19:00"},
		{`<div>All day</div>`, ""},
	}

	for _, tt := range tests {
		if got := Time(container(t, tt.markup)); got != tt.want {
			t.Errorf("Time(%s) = %q, want %q", tt.markup, got, tt.want)
		}
	}
}

func TestDescription(t *testing.T) {
	date := event.ExtractDateAt("04/15/2025", testNow)

	tests := []struct {
		name   string
		markup string
		limit  int
		want   string
	}{
		{
			name:   "summary class",
			markup: `<div><h3>Spring Gala</h3><p class="summary">An evening of music.</p></div>`,
			want:   "An evening of music.",
		},
		{
			name:   "first paragraph that is not the name",
			markup: `<div><h3>Spring Gala</h3><p>Spring Gala</p><p>Dinner and dancing.</p></div>`,
			want:   "Dinner and dancing.",
		},
		{
			name:   "remaining text without name and date",
			markup: `<div><h3>Spring Gala</h3><span>04/15/2025</span><span>Dinner and dancing</span></div>`,
			want:   "Dinner and dancing",
		},
		{
			name:   "truncated with ellipsis",
			markup: `<div><p class="description">abcdefghijklmnopqrstuvwxyz</p></div>`,
			limit:  10,
			want:   "abcdefg...",
		},
		{
			name:   "sentinel when empty",
			markup: `<div><h3>Spring Gala</h3><span>04/15/2025</span></div>`,
			want:   event.NoDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Description(container(t, tt.markup), "Spring Gala", date, tt.limit)
			if got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{`<div><span class="venue">Main Hall</span></div>`, "Main Hall"},
		{`<div><span class="calEventLocation">Room 4, Library</span><span class="venue">Ignored</span></div>`, "Room 4, Library"},
		{`<div><span class="location">X</span></div>`, event.LocationNotSpecified},
		{`<div>nothing here</div>`, event.LocationNotSpecified},
	}

	for _, tt := range tests {
		if got := Location(container(t, tt.markup)); got != tt.want {
			t.Errorf("Location(%s) = %q, want %q", tt.markup, got, tt.want)
		}
	}
}

func TestURL(t *testing.T) {
	base := "https://example.com/events/"

	if got := URL(container(t, `<div><a href="/e/1">x</a><a href="/e/2">y</a></div>`), base); got != "https://example.com/e/1" {
		t.Errorf("URL() = %q", got)
	}
	if got := URL(container(t, `<div>no links</div>`), base); got != base {
		t.Errorf("URL() without links = %q, want base", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		href string
		base string
		want string
	}{
		{"https://other.org/x", "https://example.com/events/", "https://other.org/x"},
		{"/tickets/1", "https://example.com/events/", "https://example.com/tickets/1"},
		{"details", "https://example.com/events/", "https://example.com/events/details"},
		{"", "https://example.com/events/", "https://example.com/events/"},
		{"#top", "https://example.com/events/", "https://example.com/events/"},
		{"javascript:void(0)", "https://example.com/", "https://example.com/"},
		{"/x", "example.com", "example.com/x"},
		{"%zz", "https://example.com", "https://example.com/%zz"},
		{"/x", "", "/x"},
	}

	for _, tt := range tests {
		if got := ResolveURL(tt.href, tt.base); got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.href, tt.base, got, tt.want)
		}
	}
}

func TestExtract_UsesDateHint(t *testing.T) {
	hint := event.ExtractDateAt("March 3, 2025", testNow)
	n := container(t, `<div><h3>Annual Meetup</h3><span class="date">04/01/2025</span><span class="venue">Town Hall</span></div>`)

	f := Extract(n, Options{BaseURL: "https://example.com", Now: testNow, DateHint: &hint, DescriptionLimit: 300})

	if f.Name != "Annual Meetup" {
		t.Errorf("Name = %q", f.Name)
	}
	if f.Date.Formatted != "March 3, 2025" {
		t.Errorf("Date = %q, want hint", f.Date.Formatted)
	}
	if f.Location != "Town Hall" {
		t.Errorf("Location = %q", f.Location)
	}
	if f.URL != "https://example.com" {
		t.Errorf("URL = %q", f.URL)
	}
}
