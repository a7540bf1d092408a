package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine.
type Metrics struct {
	Registry            *prometheus.Registry
	NavigationsTotal    *prometheus.CounterVec
	NavigationDuration  prometheus.Histogram
	RetriesTotal        prometheus.Counter
	OverlayDismissals   *prometheus.CounterVec
	ClicksTotal         *prometheus.CounterVec
	QueriesTotal        *prometheus.CounterVec
	ReviewsScrapedTotal prometheus.Counter
	TargetsTotal        *prometheus.CounterVec
	CheckpointsTotal    *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	navigations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_navigations_total",
			Help: "Total page navigations by outcome.",
		},
		[]string{"outcome"},
	)
	navigationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_navigation_duration_seconds",
			Help:    "Page load latency for successful navigations.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of navigation retries scheduled.",
		},
	)
	overlayDismissals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_overlay_dismissals_total",
			Help: "Total overlay dismissals by winning strategy.",
		},
		[]string{"strategy"},
	)
	clicks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_clicks_total",
			Help: "Total landed clicks by method.",
		},
		[]string{"method"},
	)
	queries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_queries_total",
			Help: "Total structured-extraction queries by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	reviewsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reviews_scraped_total",
			Help: "Total number of reviews collected.",
		},
	)
	targets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_targets_total",
			Help: "Total crawl targets by outcome.",
		},
		[]string{"outcome"},
	)
	checkpoints := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_checkpoints_total",
			Help: "Total batch checkpoints by outcome.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(
		navigations,
		navigationDuration,
		retries,
		overlayDismissals,
		clicks,
		queries,
		reviewsScraped,
		targets,
		checkpoints,
		errorsTotal,
	)

	return &Metrics{
		Registry:            registry,
		NavigationsTotal:    navigations,
		NavigationDuration:  navigationDuration,
		RetriesTotal:        retries,
		OverlayDismissals:   overlayDismissals,
		ClicksTotal:         clicks,
		QueriesTotal:        queries,
		ReviewsScrapedTotal: reviewsScraped,
		TargetsTotal:        targets,
		CheckpointsTotal:    checkpoints,
		ErrorsTotal:         errorsTotal,
	}
}

// IncNavigation increments the navigations counter for an outcome label.
func (m *Metrics) IncNavigation(outcome string) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveNavigation records a successful page load duration.
func (m *Metrics) ObserveNavigation(d time.Duration) {
	if m == nil {
		return
	}
	m.NavigationDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncOverlayDismissal increments the dismissals counter for a strategy label.
func (m *Metrics) IncOverlayDismissal(strategy string) {
	if m == nil {
		return
	}
	m.OverlayDismissals.WithLabelValues(strategy).Inc()
}

// IncClick increments the clicks counter for a method label.
func (m *Metrics) IncClick(method string) {
	if m == nil {
		return
	}
	m.ClicksTotal.WithLabelValues(method).Inc()
}

// IncQuery increments the queries counter for kind and outcome labels.
func (m *Metrics) IncQuery(kind, outcome string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(kind, outcome).Inc()
}

// AddReviews adds to the reviews scraped counter.
func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsScrapedTotal.Add(float64(n))
}

// IncTarget increments the targets counter for an outcome label.
func (m *Metrics) IncTarget(outcome string) {
	if m == nil {
		return
	}
	m.TargetsTotal.WithLabelValues(outcome).Inc()
}

// IncCheckpoint increments the checkpoints counter for an outcome label.
func (m *Metrics) IncCheckpoint(outcome string) {
	if m == nil {
		return
	}
	m.CheckpointsTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
