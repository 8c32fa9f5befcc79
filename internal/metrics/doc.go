// Package metrics exposes Prometheus collectors for fetches, detection runs
// and the monitor, together with an HTTP handler serving /metrics.
package metrics
