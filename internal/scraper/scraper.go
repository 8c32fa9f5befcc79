package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/event-scout/internal/detect"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/metrics"
)

// Report is the outcome of scraping one page.
type Report struct {
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
	detect.Result
}

// Scraper fetches pages and runs event detection over them.
type Scraper struct {
	fetcher Fetcher
	engine  *detect.Engine
	metrics *metrics.Recorder
	log     *logger.Logger
	clock   func() time.Time
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithMetrics records fetch and detection metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithLogger sets the scraper's logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scraper) { s.log = l }
}

// WithClock sets the time source for report timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Scraper) { s.clock = clock }
}

// New creates a Scraper.
func New(fetcher Fetcher, engine *detect.Engine, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher: fetcher,
		engine:  engine,
		log:     logger.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches rawURL and extracts its events. Relative links resolve
// against the final URL after redirects.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Report, error) {
	start := time.Now()
	page, err := s.fetcher.Fetch(ctx, rawURL)
	s.metrics.ObserveFetch(err, time.Since(start))
	if err != nil {
		s.log.Error("Fetch failed", logger.Fields{"url": rawURL}, err)
		return nil, err
	}

	report, err := s.ScrapeHTML(string(page.Body), page.URL)
	if err != nil {
		return nil, err
	}
	s.log.Info("Page scraped", logger.Fields{
		"url":    page.URL,
		"events": report.Count,
		"found":  report.Found,
		"method": report.Method,
	})
	return report, nil
}

// ScrapeHTML runs detection over an HTML document already in hand.
func (s *Scraper) ScrapeHTML(html, baseURL string) (*Report, error) {
	start := time.Now()
	result, err := s.engine.Detect(html, baseURL)
	if err != nil {
		return nil, fmt.Errorf("detecting events on %s: %w", baseURL, err)
	}
	s.metrics.ObserveDetection(result.Events, time.Since(start))

	return &Report{
		URL:       baseURL,
		ScrapedAt: s.clock().UTC(),
		Result:    *result,
	}, nil
}
