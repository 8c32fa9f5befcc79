package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/monitor"
	"github.com/pfrederiksen/event-scout/internal/scraper"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const timeLayout = "2006-01-02 15:04"

func parseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// WriteReport writes the events found on one page
func WriteReport(w io.Writer, report *scraper.Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeReportText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteTracked writes the tracked URL list
func WriteTracked(w io.Writer, tracked []*storage.TrackedURL, format OutputFormat) error {
	if format == FormatJSON {
		if tracked == nil {
			tracked = []*storage.TrackedURL{}
		}
		return writeJSON(w, tracked)
	}

	if len(tracked) == 0 {
		fmt.Fprintln(w, "No tracked URLs.")
		return nil
	}
	for _, t := range tracked {
		status := "active"
		if !t.Active {
			status = "paused"
		}
		fmt.Fprintf(w, "%s [%s]\n", t.DisplayName(), status)
		fmt.Fprintf(w, "  ID: %s\n", t.ID)
		fmt.Fprintf(w, "  URL: %s\n", t.URL)
		if t.LastScanned.IsZero() {
			fmt.Fprintln(w, "  Not scanned yet")
		} else {
			fmt.Fprintf(w, "  Events: %d (last scanned %s)\n", t.LastEventCount, t.LastScanned.Local().Format(timeLayout))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d tracked\n", len(tracked))
	return nil
}

// WriteNotifications writes the notification log
func WriteNotifications(w io.Writer, list []*storage.Notification, format OutputFormat, verbose bool) error {
	if format == FormatJSON {
		if list == nil {
			list = []*storage.Notification{}
		}
		return writeJSON(w, list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return nil
	}
	unreadCount := 0
	for _, n := range list {
		marker := " "
		if !n.Read {
			marker = "*"
			unreadCount++
		}
		fmt.Fprintf(w, "%s %s  %s\n", marker, n.CreatedAt.Local().Format(timeLayout), n.Title)
		fmt.Fprintf(w, "  %s\n", n.Message)
		fmt.Fprintf(w, "  %s\n", n.URL)
		if verbose {
			fmt.Fprintf(w, "  ID: %s\n", n.ID)
			for _, evt := range n.Events {
				fmt.Fprintf(w, "    - %s (%s)\n", evt.Name, evt.Date)
			}
		}
	}
	fmt.Fprintf(w, "\n%d unread\n", unreadCount)
	return nil
}

// WriteSummary writes the outcome of one monitor cycle
func WriteSummary(w io.Writer, summary *monitor.Summary, format OutputFormat) error {
	if format == FormatJSON {
		type checked struct {
			ID        string `json:"id"`
			URL       string `json:"url"`
			Previous  int    `json:"previous"`
			Current   int    `json:"current"`
			NewEvents int    `json:"new_events"`
		}
		out := struct {
			CheckedAt     time.Time `json:"checked_at"`
			Checked       int       `json:"checked"`
			Failed        int       `json:"failed"`
			Notifications int       `json:"notifications"`
			Results       []checked `json:"results"`
		}{
			CheckedAt:     time.Now().UTC(),
			Checked:       summary.Checked,
			Failed:        summary.Failed,
			Notifications: summary.Notifications,
			Results:       []checked{},
		}
		for _, r := range summary.Results {
			out.Results = append(out.Results, checked{
				ID:        r.Tracked.ID,
				URL:       r.Tracked.URL,
				Previous:  r.Previous,
				Current:   r.Current,
				NewEvents: r.NewEvents(),
			})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Checked %d URLs (%d failed)\n", summary.Checked+summary.Failed, summary.Failed)
	if summary.Notifications == 0 {
		fmt.Fprintln(w, "No new events found.")
		return nil
	}
	for _, r := range summary.Results {
		if r.NewEvents() == 0 {
			continue
		}
		fmt.Fprintf(w, "  NEW: %s: %d new event(s), %d total\n", r.Tracked.DisplayName(), r.NewEvents(), r.Current)
	}
	return nil
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeReportText(w io.Writer, report *scraper.Report, verbose bool) error {
	if report.Empty() {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	if report.URL != "" {
		fmt.Fprintf(w, "Events on %s\n", report.URL)
	}
	for i, evt := range report.Events {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, evt.Name)
		fmt.Fprintf(w, "   Date: %s\n", dateLine(evt))
		if evt.HasLocation() {
			fmt.Fprintf(w, "   Location: %s\n", evt.Location)
		}
		fmt.Fprintf(w, "   Source: %s (%s confidence)\n", evt.Source, evt.Confidence)
		if evt.URL != "" && evt.URL != report.URL {
			fmt.Fprintf(w, "   Link: %s\n", evt.URL)
		}
		if verbose {
			if evt.HasDescription() {
				fmt.Fprintf(w, "   Description: %s\n", evt.Description)
			}
			fmt.Fprintf(w, "   ID: %s\n", evt.ID)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events", report.Count)
	if report.Found > report.Count {
		fmt.Fprintf(w, " from %d candidates", report.Found)
	}
	fmt.Fprintf(w, " via %s\n", report.Method)
	return nil
}

func dateLine(evt *event.Event) string {
	if evt.Time != "" && evt.HasDate() {
		return evt.Date + " at " + evt.Time
	}
	return evt.Date
}
