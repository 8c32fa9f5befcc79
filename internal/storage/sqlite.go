package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracked_urls (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1,
	last_event_count INTEGER NOT NULL DEFAULT 0,
	last_scanned INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	tracked_url_id TEXT NOT NULL,
	url TEXT NOT NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	new_event_count INTEGER NOT NULL,
	total_events INTEGER NOT NULL,
	events TEXT NOT NULL,
	read INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
`

// SQLiteStore persists tracked URLs and notifications in a SQLite database.
// Times are stored as unix milliseconds; zero means unset.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddTracked(ctx context.Context, url, name string) (*TrackedURL, error) {
	t := &TrackedURL{
		ID:        uuid.NewString(),
		URL:       url,
		Name:      name,
		Active:    true,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracked_urls (id, url, name, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		t.ID, t.URL, t.Name, toMillis(t.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("url already tracked: %s", url)
		}
		return nil, fmt.Errorf("inserting tracked url: %w", err)
	}
	return t, nil
}

const trackedColumns = `id, url, name, active, last_event_count, last_scanned, created_at`

func (s *SQLiteStore) GetTracked(ctx context.Context, id string) (*TrackedURL, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackedColumns+` FROM tracked_urls WHERE id = ?`, id)
	t, err := scanTracked(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tracked url %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying tracked url: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTracked(ctx context.Context, activeOnly bool) ([]*TrackedURL, error) {
	query := `SELECT ` + trackedColumns + ` FROM tracked_urls`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tracked urls: %w", err)
	}
	defer rows.Close()

	var out []*TrackedURL
	for rows.Next() {
		t, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning tracked url: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RemoveTracked(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracked_urls WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tracked url: %w", err)
	}
	return expectOne(res, "tracked url", id)
}

func (s *SQLiteStore) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tracked_urls SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating tracked url: %w", err)
	}
	return expectOne(res, "tracked url", id)
}

func (s *SQLiteStore) UpdateLastScan(ctx context.Context, id string, count int, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracked_urls SET last_event_count = ?, last_scanned = ? WHERE id = ?`,
		count, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("updating tracked url: %w", err)
	}
	return expectOne(res, "tracked url", id)
}

func (s *SQLiteStore) AppendNotification(ctx context.Context, n *Notification) error {
	events, err := json.Marshal(n.Events)
	if err != nil {
		return fmt.Errorf("encoding notification events: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, tracked_url_id, url, name, title, message, new_event_count, total_events, events, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.TrackedURLID, n.URL, n.Name, n.Title, n.Message,
		n.NewEventCount, n.TotalEvents, string(events), boolInt(n.Read), toMillis(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, limit int) ([]*Notification, error) {
	query := `SELECT id, tracked_url_id, url, name, title, message, new_event_count, total_events, events, read, created_at
		FROM notifications ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var (
			n       Notification
			events  string
			read    int
			created int64
		)
		if err := rows.Scan(&n.ID, &n.TrackedURLID, &n.URL, &n.Name, &n.Title, &n.Message,
			&n.NewEventCount, &n.TotalEvents, &events, &read, &created); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &n.Events); err != nil {
			return nil, fmt.Errorf("decoding notification events: %w", err)
		}
		n.Read = read != 0
		n.CreatedAt = fromMillis(created)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}
	return expectOne(res, "notification", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracked(row rowScanner) (*TrackedURL, error) {
	var (
		t                TrackedURL
		active           int
		scanned, created int64
	)
	if err := row.Scan(&t.ID, &t.URL, &t.Name, &active, &t.LastEventCount, &scanned, &created); err != nil {
		return nil, err
	}
	t.Active = active != 0
	t.LastScanned = fromMillis(scanned)
	t.CreatedAt = fromMillis(created)
	return &t, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
