package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	trackedFile       = "tracked.json"
	notificationsFile = "notifications.json"
)

// JSONStore keeps tracked URLs and notifications in two JSON files.
type JSONStore struct {
	mu      sync.Mutex
	dataDir string
	now     func() time.Time
}

// NewJSONStore creates a JSONStore rooted at dataDir, creating it if needed.
func NewJSONStore(dataDir string) (*JSONStore, error) {
	dataDir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &JSONStore{dataDir: dataDir, now: time.Now}, nil
}

// Dir returns the data directory.
func (s *JSONStore) Dir() string {
	return s.dataDir
}

func (s *JSONStore) AddTracked(_ context.Context, url, name string) (*TrackedURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadTracked()
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.URL == url {
			return nil, fmt.Errorf("url already tracked: %s", url)
		}
	}

	t := &TrackedURL{
		ID:        uuid.NewString(),
		URL:       url,
		Name:      name,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	all = append(all, t)
	if err := s.save(trackedFile, all); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *JSONStore) GetTracked(_ context.Context, id string) (*TrackedURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadTracked()
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tracked url %s: %w", id, ErrNotFound)
}

func (s *JSONStore) ListTracked(_ context.Context, activeOnly bool) ([]*TrackedURL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadTracked()
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return all, nil
	}
	active := all[:0]
	for _, t := range all {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *JSONStore) RemoveTracked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadTracked()
	if err != nil {
		return err
	}
	for i, t := range all {
		if t.ID == id {
			all = append(all[:i], all[i+1:]...)
			return s.save(trackedFile, all)
		}
	}
	return fmt.Errorf("tracked url %s: %w", id, ErrNotFound)
}

func (s *JSONStore) SetActive(_ context.Context, id string, active bool) error {
	return s.updateTracked(id, func(t *TrackedURL) { t.Active = active })
}

func (s *JSONStore) UpdateLastScan(_ context.Context, id string, count int, at time.Time) error {
	return s.updateTracked(id, func(t *TrackedURL) {
		t.LastEventCount = count
		t.LastScanned = at.UTC()
	})
}

func (s *JSONStore) updateTracked(id string, update func(*TrackedURL)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadTracked()
	if err != nil {
		return err
	}
	for _, t := range all {
		if t.ID == id {
			update(t)
			return s.save(trackedFile, all)
		}
	}
	return fmt.Errorf("tracked url %s: %w", id, ErrNotFound)
}

func (s *JSONStore) AppendNotification(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadNotifications()
	if err != nil {
		return err
	}
	all = append(all, n)
	return s.save(notificationsFile, all)
}

func (s *JSONStore) ListNotifications(_ context.Context, limit int) ([]*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadNotifications()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *JSONStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadNotifications()
	if err != nil {
		return err
	}
	for _, n := range all {
		if n.ID == id {
			n.Read = true
			return s.save(notificationsFile, all)
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// Close is a no-op; every write is flushed immediately.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) loadTracked() ([]*TrackedURL, error) {
	var all []*TrackedURL
	if err := s.load(trackedFile, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *JSONStore) loadNotifications() ([]*Notification, error) {
	var all []*Notification
	if err := s.load(notificationsFile, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *JSONStore) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// save replaces name atomically via a temp file.
func (s *JSONStore) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dataDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
