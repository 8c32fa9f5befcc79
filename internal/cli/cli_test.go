package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

const fixtureDir = "../../testdata/fixtures/"

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes the root command against an isolated data directory.
func runCLI(t *testing.T, dataDir string, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dataDir, "missing.yaml"),
		"--data-dir", dataDir,
		"--log-level", "error",
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	code := exitCode(err, &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func eventPage(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><script type="application/ld+json">[`)
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"@type": "Event", "name": "` + name + `", "startDate": "2025-06-0` + string(rune('1'+i)) + `"}`)
	}
	b.WriteString(`]</script></head><body></body></html>`)
	return b.String()
}

// pageServer serves whatever page currently holds.
func pageServer(t *testing.T, page *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page.Load().(string)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_File(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "extract", "--file", fixtureDir+"structured_single.html")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "1. Tech Summit")
	assert.Contains(t, res.stdout, "Date: March 10, 2025")
	assert.Contains(t, res.stdout, "Source: Structured Data (High confidence)")
	assert.Contains(t, res.stdout, "Total: 1 events")
}

func TestExtract_FileJSON(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "extract", "--file", fixtureDir+"structured_single.html",
		"--base-url", "https://example.org/", "--format", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var out struct {
		URL    string         `json:"url"`
		Count  int            `json:"count"`
		Events []*event.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "https://example.org/", out.URL)
	assert.Equal(t, 1, out.Count)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "Tech Summit", out.Events[0].Name)
}

func TestExtract_NoEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>Nothing here</p></body></html>"), 0644))

	res := runCLI(t, dir, "extract", "--file", path)
	assert.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "No events found.\n", res.stdout)
}

func TestExtract_URL(t *testing.T) {
	var page atomic.Value
	page.Store(eventPage("Garden Tour", "Jazz Night"))
	srv := pageServer(t, &page)

	res := runCLI(t, t.TempDir(), "extract", srv.URL+"/events", "--sort", "name")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Events on "+srv.URL+"/events")
	assert.Less(t, strings.Index(res.stdout, "Garden Tour"), strings.Index(res.stdout, "Jazz Night"))
}

func TestExtract_Filter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(eventPage("Garden Tour", "Jazz Night", "Jazz Brunch")), 0644))

	res := runCLI(t, dir, "extract", "--file", path, "--keyword", "jazz", "--dates", "2025-06-02..2025-06-30")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "Garden Tour")
	assert.Contains(t, res.stdout, "Jazz Night")
	assert.Contains(t, res.stdout, "Jazz Brunch")
	assert.Contains(t, res.stdout, "Total: 2 events")

	res = runCLI(t, dir, "extract", "--file", path, "--keyword", "poetry")
	assert.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "No events found.\n", res.stdout)

	res = runCLI(t, dir, "extract", "--file", path, "--source", "Table Row")
	assert.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "No events found.\n", res.stdout)

	res = runCLI(t, dir, "extract", "--file", path, "--source", "structured data")
	assert.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "Total: 3 events")

	res = runCLI(t, dir, "extract", "--file", path, "--min-confidence", "certain")
	assert.Equal(t, ExitError, res.code)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"extract"}, "a URL or --file is required"},
		{"both inputs", []string{"extract", "https://example.org", "--file", "x.html"}, "not both"},
		{"bad url", []string{"extract", "ftp://example.org"}, "ftp://example.org"},
		{"bad format", []string{"extract", "--file", fixtureDir + "structured_single.html", "--format", "xml"}, "invalid format"},
		{"bad sort", []string{"extract", "--file", fixtureDir + "structured_single.html", "--sort", "size"}, "invalid sort order"},
		{"missing file", []string{"extract", "--file", "does-not-exist.html"}, "does-not-exist.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, t.TempDir(), tt.args...)
			assert.Equal(t, ExitError, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestExtract_Export(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "events.csv")

	res := runCLI(t, dir, "extract", "--file", fixtureDir+"structured_single.html", "--export", out)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Exported 1 events to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Event Name,Date,Time"))
	assert.Contains(t, string(data), "Tech Summit")
}

func TestExtract_ExportToDirectory(t *testing.T) {
	dir := t.TempDir()
	exportDir := filepath.Join(dir, "exports")
	require.NoError(t, os.Mkdir(exportDir, 0755))

	res := runCLI(t, dir, "extract", "--file", fixtureDir+"structured_single.html",
		"--export", exportDir, "--export-format", "ics")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	matches, err := filepath.Glob(filepath.Join(exportDir, "Events_*.ics"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestTrack_Lifecycle(t *testing.T) {
	dir := t.TempDir()

	res := runCLI(t, dir, "track", "add", "https://example.org/calendar", "--name", "City Calendar", "--no-scan")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Tracking City Calendar")

	store, err := storage.NewJSONStore(dir)
	require.NoError(t, err)
	tracked, err := store.ListTracked(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	id := tracked[0].ID

	res = runCLI(t, dir, "track", "list")
	assert.Contains(t, res.stdout, "City Calendar [active]")
	assert.Contains(t, res.stdout, "Not scanned yet")

	res = runCLI(t, dir, "track", "pause", id)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	res = runCLI(t, dir, "track", "list")
	assert.Contains(t, res.stdout, "City Calendar [paused]")
	res = runCLI(t, dir, "track", "list", "--active")
	assert.Equal(t, "No tracked URLs.\n", res.stdout)

	res = runCLI(t, dir, "track", "resume", id)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = runCLI(t, dir, "track", "list", "--format", "json")
	var list []*storage.TrackedURL
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Active)

	res = runCLI(t, dir, "track", "remove", id)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	res = runCLI(t, dir, "track", "remove", id)
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "no tracked URL or notification with ID "+id)
}

func TestTrack_AddRejectsInvalidURL(t *testing.T) {
	res := runCLI(t, t.TempDir(), "track", "add", "not a url")
	assert.Equal(t, ExitError, res.code)
}

func TestTrack_AddScansBaseline(t *testing.T) {
	var page atomic.Value
	page.Store(eventPage("Garden Tour", "Jazz Night"))
	srv := pageServer(t, &page)
	dir := t.TempDir()

	res := runCLI(t, dir, "track", "add", srv.URL)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Initial scan found 2 events")

	// The baseline already covers both events.
	res = runCLI(t, dir, "monitor", "--once", "--delay", "0")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No new events found.")
}

func TestMonitor_OnceReportsNewEvents(t *testing.T) {
	var page atomic.Value
	page.Store(eventPage("Garden Tour"))
	srv := pageServer(t, &page)
	dir := t.TempDir()

	res := runCLI(t, dir, "track", "add", srv.URL, "--name", "Parks", "--no-scan")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = runCLI(t, dir, "monitor", "--once", "--delay", "0", "--dry-run")
	require.Equal(t, ExitNewEvents, res.code, res.stderr)
	assert.Contains(t, res.stdout, "--- Notification 1 ---")
	assert.Contains(t, res.stdout, "NEW: Parks: 1 new event(s), 1 total")

	res = runCLI(t, dir, "monitor", "--once", "--delay", "0")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)

	page.Store(eventPage("Garden Tour", "Jazz Night", "Film Session"))
	res = runCLI(t, dir, "monitor", "--once", "--delay", "0", "--format", "json")
	require.Equal(t, ExitNewEvents, res.code, res.stderr)

	var summary struct {
		Checked       int `json:"checked"`
		Notifications int `json:"notifications"`
		Results       []struct {
			NewEvents int `json:"new_events"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &summary))
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Notifications)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, 2, summary.Results[0].NewEvents)

	res = runCLI(t, dir, "notifications")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, 2, strings.Count(res.stdout, "New Events Found!"))
	assert.Contains(t, res.stdout, "2 new event(s) discovered on Parks")
	assert.Contains(t, res.stdout, "2 unread")

	res = runCLI(t, dir, "notifications", "read", "--all")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Marked 2 notification(s) as read")

	res = runCLI(t, dir, "notifications", "--unread")
	assert.Equal(t, "No notifications.\n", res.stdout)
}

func TestMonitor_OnceWithFailingURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	dir := t.TempDir()

	res := runCLI(t, dir, "track", "add", srv.URL, "--no-scan")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = runCLI(t, dir, "monitor", "--once", "--delay", "0")
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Checked 1 URLs (1 failed)")
}

func TestNotificationsRead_RequiresIDs(t *testing.T) {
	res := runCLI(t, t.TempDir(), "notifications", "read")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "pass notification IDs or --all")
}

func TestSortEvents(t *testing.T) {
	mk := func(name string, key int64, conf event.Confidence) *event.Event {
		return &event.Event{Name: name, DateSortKey: key, Confidence: conf}
	}
	names := func(events []*event.Event) []string {
		var out []string
		for _, e := range events {
			out = append(out, e.Name)
		}
		return out
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByDate, []string{"beta", "Gamma", "alpha", "Delta"}},
		{SortByName, []string{"alpha", "beta", "Delta", "Gamma"}},
		{SortByConfidence, []string{"beta", "alpha", "Gamma", "Delta"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := []*event.Event{
				mk("Delta", 300, event.ConfidenceLow),
				mk("alpha", 200, event.ConfidenceHigh),
				mk("Gamma", 100, event.ConfidenceMedium),
				mk("beta", 100, event.ConfidenceHigh),
			}
			sortEvents(events, tt.order)
			assert.Equal(t, tt.want, names(events))
		})
	}
}

func TestParseOptions(t *testing.T) {
	f, err := parseOutputFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = parseOutputFormat("yaml")
	assert.Error(t, err)

	o, err := parseSortOrder("Confidence")
	require.NoError(t, err)
	assert.Equal(t, SortByConfidence, o)
	_, err = parseSortOrder("")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, ExitSuccess, exitCode(nil, &stderr))
	assert.Equal(t, ExitNewEvents, exitCode(&exitError{code: ExitNewEvents}, &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, ExitError, exitCode(errors.New("boom"), &stderr))
	assert.Equal(t, "Error: boom\n", stderr.String())
}
