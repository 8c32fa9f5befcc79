package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/metrics"
	"github.com/pfrederiksen/event-scout/internal/notifier"
	"github.com/pfrederiksen/event-scout/internal/scraper"
	"github.com/pfrederiksen/event-scout/internal/storage"
)

const (
	DefaultInterval = 10 * time.Minute
	DefaultDelay    = 2 * time.Second
)

// Scraper produces a report for a URL.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (*scraper.Report, error)
}

// Options configures a Monitor. A zero Interval or Concurrency takes the default;
// a zero Delay starts checks back to back.
type Options struct {
	Interval time.Duration
	// Delay is the minimum gap between starting two checks in one cycle.
	Delay       time.Duration
	Concurrency int
	Notifiers   []notifier.Notifier
	Metrics     *metrics.Recorder
	Logger      *logger.Logger
	Clock       func() time.Time
}

// CheckResult describes one check of a tracked URL.
type CheckResult struct {
	Tracked  *storage.TrackedURL
	Previous int
	Current  int
	// Notification is set when the event count grew.
	Notification *storage.Notification
}

// NewEvents is the count increase, or zero.
func (r *CheckResult) NewEvents() int {
	if r.Current > r.Previous {
		return r.Current - r.Previous
	}
	return 0
}

// Summary is the outcome of one cycle over all active tracked URLs.
type Summary struct {
	Checked       int
	Failed        int
	Notifications int
	Results       []*CheckResult
}

// Monitor periodically checks tracked URLs for new events.
type Monitor struct {
	store   storage.Store
	scraper Scraper
	opts    Options
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Monitor.
func New(store storage.Store, s Scraper, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Monitor{
		store:   store,
		scraper: s,
		opts:    opts,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lock serializes work on one tracked URL.
func (m *Monitor) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Check scrapes one tracked URL, stores the new count and, if the count grew,
// records a notification carrying the newest events and delivers it.
// A failed scrape leaves the stored count untouched.
func (m *Monitor) Check(ctx context.Context, id string) (*CheckResult, error) {
	unlock := m.lock(id)
	defer unlock()

	tracked, err := m.store.GetTracked(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := m.scraper.Scrape(ctx, tracked.URL)
	m.opts.Metrics.ObserveCheck(err)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", tracked.URL, err)
	}

	now := m.opts.Clock()
	result := &CheckResult{
		Tracked:  tracked,
		Previous: tracked.LastEventCount,
		Current:  report.Count,
	}
	if err := m.store.UpdateLastScan(ctx, id, report.Count, now); err != nil {
		return nil, fmt.Errorf("saving scan of %s: %w", tracked.URL, err)
	}
	tracked.LastEventCount = report.Count
	tracked.LastScanned = now.UTC()

	fields := logger.Fields{
		"url":      tracked.URL,
		"name":     tracked.DisplayName(),
		"previous": result.Previous,
		"current":  result.Current,
	}

	newCount := result.NewEvents()
	if newCount == 0 {
		m.log.Info("Tracked URL checked", fields)
		return result, nil
	}

	events := report.Events[len(report.Events)-newCount:]
	n := storage.NewNotification(tracked, newCount, report.Count, events, now)
	if err := m.store.AppendNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("saving notification for %s: %w", tracked.URL, err)
	}
	result.Notification = n
	m.opts.Metrics.IncNotifications()

	fields["new_events"] = newCount
	m.log.Info("New events found", fields)

	for _, sink := range m.opts.Notifiers {
		if err := sink.Notify(ctx, n); err != nil {
			m.log.Error("Notification delivery failed", logger.Fields{"url": tracked.URL, "notification": n.ID}, err)
		}
	}
	return result, nil
}

// Baseline scrapes a tracked URL and stores its count without notifying, so
// that only events appearing later are reported.
func (m *Monitor) Baseline(ctx context.Context, id string) (int, error) {
	unlock := m.lock(id)
	defer unlock()

	tracked, err := m.store.GetTracked(ctx, id)
	if err != nil {
		return 0, err
	}
	report, err := m.scraper.Scrape(ctx, tracked.URL)
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", tracked.URL, err)
	}
	if err := m.store.UpdateLastScan(ctx, id, report.Count, m.opts.Clock()); err != nil {
		return 0, fmt.Errorf("saving scan of %s: %w", tracked.URL, err)
	}
	return report.Count, nil
}

// CheckAll checks every active tracked URL once. Failures of single URLs
// are logged and counted; the returned error is set only when the cycle
// itself could not run.
func (m *Monitor) CheckAll(ctx context.Context) (*Summary, error) {
	tracked, err := m.store.ListTracked(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing tracked urls: %w", err)
	}

	m.log.Info("Checking tracked URLs", logger.Fields{"count": len(tracked)})

	limit := rate.Inf
	if m.opts.Delay > 0 {
		limit = rate.Every(m.opts.Delay)
	}
	pacer := rate.NewLimiter(limit, 1)

	results := make([]*CheckResult, len(tracked))
	failed := make([]bool, len(tracked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for i, t := range tracked {
		if err := pacer.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			res, err := m.Check(gctx, t.ID)
			if err != nil {
				failed[i] = true
				if !errors.Is(err, context.Canceled) {
					m.log.Error("Tracked URL check failed", logger.Fields{"url": t.URL, "id": t.ID}, err)
				}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{}
	for i, res := range results {
		if failed[i] {
			summary.Failed++
			continue
		}
		if res == nil {
			continue
		}
		summary.Checked++
		summary.Results = append(summary.Results, res)
		if res.Notification != nil {
			summary.Notifications++
		}
	}

	m.opts.Metrics.CycleFinished(len(tracked), m.opts.Clock())
	m.log.Info("Completed checking tracked URLs", logger.Fields{
		"checked":       summary.Checked,
		"failed":        summary.Failed,
		"notifications": summary.Notifications,
	})

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// Run checks all tracked URLs immediately and then every interval until ctx
// is cancelled. Cycles never overlap.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("Monitor started", logger.Fields{
		"interval": m.opts.Interval.String(),
		"delay":    m.opts.Delay.String(),
	})

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := m.CheckAll(ctx); err != nil && ctx.Err() == nil {
			m.log.Error("Monitor cycle failed", nil, err)
		}
		select {
		case <-ctx.Done():
			m.log.Info("Monitor stopped", nil)
			return nil
		case <-ticker.C:
		}
	}
}
