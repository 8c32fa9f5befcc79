package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// ErrNotFound is returned when a tracked URL or notification does not exist.
var ErrNotFound = errors.New("not found")

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// NotificationTitle is the title of every new-events notification.
const NotificationTitle = "New Events Found!"

// TrackedURL is a page the monitor checks periodically.
type TrackedURL struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Name           string    `json:"name"`
	Active         bool      `json:"active"`
	LastEventCount int       `json:"last_event_count"`
	LastScanned    time.Time `json:"last_scanned,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DisplayName returns the name, or the URL when no name was given.
func (t *TrackedURL) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.URL
}

// Notification records new events found on a tracked URL.
type Notification struct {
	ID            string         `json:"id"`
	TrackedURLID  string         `json:"tracked_url_id"`
	URL           string         `json:"url"`
	Name          string         `json:"name"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	NewEventCount int            `json:"new_event_count"`
	TotalEvents   int            `json:"total_events"`
	Events        []*event.Event `json:"events"`
	Read          bool           `json:"read"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewNotification builds the notification for newCount events appearing on t.
// events should already be the newest newCount candidates.
func NewNotification(t *TrackedURL, newCount, total int, events []*event.Event, now time.Time) *Notification {
	return &Notification{
		ID:            uuid.NewString(),
		TrackedURLID:  t.ID,
		URL:           t.URL,
		Name:          t.DisplayName(),
		Title:         NotificationTitle,
		Message:       fmt.Sprintf("%d new event(s) discovered on %s", newCount, t.DisplayName()),
		NewEventCount: newCount,
		TotalEvents:   total,
		Events:        events,
		CreatedAt:     now.UTC(),
	}
}

// Store persists tracked URLs and the notification log.
type Store interface {
	AddTracked(ctx context.Context, url, name string) (*TrackedURL, error)
	GetTracked(ctx context.Context, id string) (*TrackedURL, error)
	// ListTracked returns tracked URLs in creation order.
	ListTracked(ctx context.Context, activeOnly bool) ([]*TrackedURL, error)
	RemoveTracked(ctx context.Context, id string) error
	// SetActive pauses or resumes monitoring of a tracked URL.
	SetActive(ctx context.Context, id string, active bool) error
	UpdateLastScan(ctx context.Context, id string, count int, at time.Time) error

	AppendNotification(ctx context.Context, n *Notification) error
	// ListNotifications returns the newest notifications first. limit <= 0 means all.
	ListNotifications(ctx context.Context, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error

	Close() error
}

// Open returns the store selected by backend. dir holds the JSON files;
// sqlitePath is used by the SQLite backend and defaults to dir/event-scout.db.
func Open(backend, dir, sqlitePath string) (Store, error) {
	dir, err := expandHome(dir)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(backend) {
	case BackendJSON, "":
		return NewJSONStore(dir)
	case BackendSQLite:
		if sqlitePath == "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
			sqlitePath = filepath.Join(dir, "event-scout.db")
		}
		path, err := expandHome(sqlitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(context.Background(), path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
