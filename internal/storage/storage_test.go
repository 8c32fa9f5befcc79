package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-scout/internal/event"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"json": func(t *testing.T) Store {
			s, err := NewJSONStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_TrackedURLs(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			first, err := s.AddTracked(ctx, "https://library.example.org/events", "Library")
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.True(t, first.Active)
			assert.Zero(t, first.LastEventCount)

			second, err := s.AddTracked(ctx, "https://parks.example.org/calendar", "")
			require.NoError(t, err)
			assert.Equal(t, "https://parks.example.org/calendar", second.DisplayName())

			_, err = s.AddTracked(ctx, "https://library.example.org/events", "Again")
			assert.Error(t, err, "duplicate URLs are rejected")

			list, err := s.ListTracked(ctx, true)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, first.ID, list[0].ID)
			assert.Equal(t, second.ID, list[1].ID)

			scanned := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
			require.NoError(t, s.UpdateLastScan(ctx, first.ID, 7, scanned))

			got, err := s.GetTracked(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, 7, got.LastEventCount)
			assert.True(t, got.LastScanned.Equal(scanned))
			assert.Equal(t, "Library", got.Name)

			require.NoError(t, s.SetActive(ctx, first.ID, false))
			active, err := s.ListTracked(ctx, true)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, second.ID, active[0].ID)
			require.NoError(t, s.SetActive(ctx, first.ID, true))

			require.NoError(t, s.RemoveTracked(ctx, second.ID))
			list, err = s.ListTracked(ctx, false)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, err := s.GetTracked(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.RemoveTracked(ctx, "missing"), ErrNotFound)
			assert.ErrorIs(t, s.SetActive(ctx, "missing", false), ErrNotFound)
			assert.ErrorIs(t, s.UpdateLastScan(ctx, "missing", 1, time.Now()), ErrNotFound)
			assert.ErrorIs(t, s.MarkRead(ctx, "missing"), ErrNotFound)
		})
	}
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			tracked, err := s.AddTracked(ctx, "https://library.example.org/events", "Library")
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				events := []*event.Event{{
					ID:         "evt",
					Name:       "Book Sale",
					Date:       "October 20, 2026",
					Source:     event.SourcePattern,
					Confidence: event.ConfidenceHigh,
				}}
				n := NewNotification(tracked, i+1, 10+i, events, base.Add(time.Duration(i)*time.Hour))
				require.NoError(t, s.AppendNotification(ctx, n))
			}

			list, err := s.ListNotifications(ctx, 2)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, 3, list[0].NewEventCount, "newest first")
			assert.Equal(t, 2, list[1].NewEventCount)
			assert.Equal(t, NotificationTitle, list[0].Title)
			assert.Equal(t, "3 new event(s) discovered on Library", list[0].Message)
			require.Len(t, list[0].Events, 1)
			assert.Equal(t, "Book Sale", list[0].Events[0].Name)
			assert.Equal(t, event.ConfidenceHigh, list[0].Events[0].Confidence)

			require.NoError(t, s.MarkRead(ctx, list[0].ID))
			all, err := s.ListNotifications(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.True(t, all[0].Read)
			assert.False(t, all[1].Read)
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("json", dir, "")
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open("sqlite", dir, "")
	require.NoError(t, err)
	defer s.Close()
	sq, ok := s.(*SQLiteStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "event-scout.db"), sq.Path())

	_, err = Open("postgres", dir, "")
	assert.Error(t, err)
}

func TestJSONStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewJSONStore(dir)
	require.NoError(t, err)
	added, err := s1.AddTracked(ctx, "https://museum.example.org/whats-on", "Museum")
	require.NoError(t, err)

	s2, err := NewJSONStore(dir)
	require.NoError(t, err)
	got, err := s2.GetTracked(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Museum", got.Name)
}
