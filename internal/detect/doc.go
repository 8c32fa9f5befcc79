// Package detect finds event records in arbitrary HTML pages.
//
// A detection run applies five strategies in a fixed order: JSON-LD
// structured data, microdata, class-name patterns, free-text date scanning
// and table rows. The strategies share one per-run SeenSet keyed by the
// (normalized name, date) signature, so a lower-precision strategy never
// re-inserts an event an earlier strategy already produced. Aggregate then
// removes any residual duplicates, sorts by date, confidence and name, and
// applies the result cap.
//
// The engine holds no mutable state between runs and does no I/O; fetching
// pages is the scraper package's job.
package detect
