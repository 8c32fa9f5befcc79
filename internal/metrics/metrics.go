package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pfrederiksen/event-scout/internal/event"
)

const namespace = "event_scout"

// Fetch outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder holds the collectors for one registry. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	detectDuration prometheus.Histogram
	candidates     *prometheus.CounterVec
	emptyPages     prometheus.Counter
	checks         *prometheus.CounterVec
	notifications  prometheus.Counter
	tracked        prometheus.Gauge
	lastCheck      prometheus.Gauge
}

// New creates a Recorder with its own registry, including the Go and process
// collectors.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Page fetches by outcome",
	}, []string{"status"})
	r.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching pages",
		Buckets:   prometheus.DefBuckets,
	})
	r.detectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detect_duration_seconds",
		Help:      "Time spent running detection over a page",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	r.candidates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Events returned by detection, by source and confidence",
	}, []string{"source", "confidence"})
	r.emptyPages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "empty_pages_total",
		Help:      "Pages on which no events were found",
	})
	r.checks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "monitor_checks_total",
		Help:      "Tracked URL checks by outcome",
	}, []string{"status"})
	r.notifications = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "New-event notifications emitted",
	})
	r.tracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_urls",
		Help:      "Active tracked URLs in the last monitor cycle",
	})
	r.lastCheck = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix timestamp of the last completed monitor cycle",
	})

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.fetches, r.fetchDuration, r.detectDuration, r.candidates, r.emptyPages,
		r.checks, r.notifications, r.tracked, r.lastCheck,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one page fetch.
func (r *Recorder) ObserveFetch(err error, d time.Duration) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(status(err)).Inc()
	r.fetchDuration.Observe(d.Seconds())
}

// ObserveDetection records the events of one detection run.
func (r *Recorder) ObserveDetection(events []*event.Event, d time.Duration) {
	if r == nil {
		return
	}
	r.detectDuration.Observe(d.Seconds())
	if len(events) == 0 {
		r.emptyPages.Inc()
	}
	for _, evt := range events {
		r.candidates.WithLabelValues(string(evt.Source), string(evt.Confidence)).Inc()
	}
}

// ObserveCheck records one tracked URL check.
func (r *Recorder) ObserveCheck(err error) {
	if r == nil {
		return
	}
	r.checks.WithLabelValues(status(err)).Inc()
}

// IncNotifications counts one emitted notification.
func (r *Recorder) IncNotifications() {
	if r == nil {
		return
	}
	r.notifications.Inc()
}

// CycleFinished records the end of a monitor cycle over tracked URLs.
func (r *Recorder) CycleFinished(tracked int, at time.Time) {
	if r == nil {
		return
	}
	r.tracked.Set(float64(tracked))
	r.lastCheck.Set(float64(at.Unix()))
}

// Handler serves /metrics and /healthz.
func (r *Recorder) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Server returns an HTTP server exposing Handler on addr.
func (r *Recorder) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
