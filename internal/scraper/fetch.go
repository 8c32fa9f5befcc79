package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly/v2"

	"github.com/pfrederiksen/event-scout/internal/logger"
)

const (
	DefaultUserAgent     = "event-scout/1.0 (github.com/pfrederiksen/event-scout)"
	DefaultTimeout       = 30 * time.Second
	DefaultRetries       = 3
	DefaultRetryInterval = 500 * time.Millisecond
)

var (
	// ErrFetch is returned when a page is unreachable or refuses to serve us.
	ErrFetch = errors.New("could not fetch page")
	// ErrInvalidURL is returned for anything but an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
)

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher downloads pages.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// FetchOptions configures a CollyFetcher. Zero values take the defaults.
type FetchOptions struct {
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
	Logger        *logger.Logger
}

// CollyFetcher fetches pages with colly, retrying transient failures with
// exponential backoff. All requests share one HTTP transport, created on
// first use and released by Close.
type CollyFetcher struct {
	opts FetchOptions
	log  *logger.Logger

	mu        sync.Mutex
	transport *http.Transport
}

// NewFetcher creates a CollyFetcher.
func NewFetcher(opts FetchOptions) *CollyFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &CollyFetcher{opts: opts, log: log}
}

func (f *CollyFetcher) sharedTransport() *http.Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport == nil {
		f.transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		}
	}
	return f.transport
}

// Close releases idle connections held by the shared transport.
func (f *CollyFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport != nil {
		f.transport.CloseIdleConnections()
		f.transport = nil
	}
	return nil
}

// Fetch downloads rawURL. Network errors, 429 and 5xx responses are retried;
// other 4xx responses fail immediately. Every failure wraps ErrFetch.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.opts.Retries)), ctx)

	var page *Page
	attempt := 0
	op := func() error {
		attempt++
		p, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			page = p
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return backoff.Permanent(err)
		}
		f.log.Warn("Fetch attempt failed", logger.Fields{
			"url":     rawURL,
			"attempt": attempt,
			"error":   err.Error(),
		})
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	return page, nil
}

type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.code, e.err)
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.opts.UserAgent),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(f.sharedTransport())
	c.SetRequestTimeout(f.opts.Timeout)

	var (
		page    *Page
		respErr error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		f.log.Debug("Fetching page", logger.Fields{"url": r.URL.String()})
	})
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			respErr = &statusError{code: r.StatusCode, err: err}
			return
		}
		respErr = err
	})

	visitErr := c.Visit(rawURL)
	c.Wait()

	switch {
	case respErr != nil:
		return nil, respErr
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case visitErr != nil:
		return nil, visitErr
	case page == nil:
		return nil, errors.New("no response received")
	}
	return page, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidURL, rawURL)
	}
	return nil
}
