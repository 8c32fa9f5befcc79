// Package scraper downloads web pages and hands them to the detection engine.
//
// CollyFetcher performs the HTTP work with colly, retrying network errors,
// 429 and 5xx responses with exponential backoff while failing fast on other
// client errors. Fetch failures wrap ErrFetch so callers can tell an
// unreachable or protected site apart from a page without events.
package scraper
