package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Dialog metrics
	DialogTurnsTotal       *prometheus.CounterVec
	DialogDurationSeconds  prometheus.Histogram
	ClarificationsTotal    *prometheus.CounterVec
	ClassifierFallback     prometheus.Counter
	EntityExtractionsTotal *prometheus.CounterVec

	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec

	// Backup metrics
	BackupsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DialogTurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_dialog_turns_total",
				Help: "Total number of dialog turns by intent and turn kind",
			},
			[]string{"intent", "kind"}, // kind: answer, clarification
		),

		DialogDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sage_dialog_duration_seconds",
				Help:    "End-to-end dialog turn processing duration",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		),

		ClarificationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_clarifications_total",
				Help: "Total clarifying questions asked by entity kind",
			},
			[]string{"kind"},
		),

		ClassifierFallback: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "sage_classifier_fallback_total",
				Help: "Times the rule classifier answered because the LLM failed",
			},
		),

		EntityExtractionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_entity_extractions_total",
				Help: "Total entities extracted from user phrases by kind",
			},
			[]string{"kind"},
		),

		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_scraper_requests_total",
				Help: "Total number of scraper requests by source and status",
			},
			[]string{"source", "status"}, // status: success, error, timeout
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sage_scraper_duration_seconds",
				Help:    "Scraper request duration in seconds by source",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"source"}, // source: timetable, employees, classnames
		),

		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sage_http_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"route"},
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sage_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"limiter_type"}, // limiter_type: scraper, user
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"},
		),

		BackupsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sage_backups_total",
				Help: "Total database backup attempts by status",
			},
			[]string{"status"}, // status: success, error
		),
	}

	return m
}

// RecordTurn records a processed dialog turn. Implements the dialog
// engine's Recorder interface.
func (m *Metrics) RecordTurn(intentKey string, clarification bool) {
	kind := "answer"
	if clarification {
		kind = "clarification"
	}
	m.DialogTurnsTotal.WithLabelValues(intentKey, kind).Inc()
}

// RecordTurnDuration records end-to-end turn processing time.
func (m *Metrics) RecordTurnDuration(seconds float64) {
	m.DialogDurationSeconds.Observe(seconds)
}

// RecordClarification records a clarifying question by asked kind.
func (m *Metrics) RecordClarification(kind string) {
	m.ClarificationsTotal.WithLabelValues(kind).Inc()
}

// RecordClassifierFallback records a rule-classifier fallback.
func (m *Metrics) RecordClassifierFallback() {
	m.ClassifierFallback.Inc()
}

// RecordEntityExtraction records an extracted entity.
func (m *Metrics) RecordEntityExtraction(kind string) {
	m.EntityExtractionsTotal.WithLabelValues(kind).Inc()
}

// RecordScraperRequest records a scraper request with status
func (m *Metrics) RecordScraperRequest(source, status string, duration float64) {
	m.ScraperRequestsTotal.WithLabelValues(source, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(source).Observe(duration)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(route, code string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordBackup records a database backup attempt
func (m *Metrics) RecordBackup(status string) {
	m.BackupsTotal.WithLabelValues(status).Inc()
}
