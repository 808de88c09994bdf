package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// renumber pass results
const (
	RenumberResultOK          = "ok"
	RenumberResultUnavailable = "unavailable"
	RenumberResultInvalid     = "invalid"
	RenumberResultConflict    = "conflict"
)

// load cache lookup outcomes
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

type Manager struct {
	// http
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	GaugeRequests              prometheus.Gauge
	GaugeLifeSignal            prometheus.Gauge
	HistogramRequestDuration   *prometheus.HistogramVec

	// sequencing
	CounterRenumberPasses   *prometheus.CounterVec
	CounterNumberingUpdates prometheus.Counter
	HistRenumberDuration    prometheus.Histogram

	// load
	CounterLoadCache   *prometheus.CounterVec
	HistLoadBucketsNum prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
}

// NewManager registers all service metrics on reg, named <namespace>_<subsystem>_<name>.
func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)
	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
	}
	histOpts := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}
	}

	return &Manager{
		CounterRequests: factory.NewCounterVec(
			counterOpts("request", "The total number of incoming requests"),
			[]string{"method", "status"},
		),
		CounterHandleRequestPanic: factory.NewCounter(
			counterOpts("handle_request_panic", "The total number of serve request panics"),
		),
		CounterRateLimitedRequests: factory.NewCounter(
			counterOpts("rate_limited_requests", "The total number of rate limited requests"),
		),
		GaugeRequests: factory.NewGauge(
			gaugeOpts("current_requests", "Current number of open connections"),
		),
		GaugeLifeSignal: factory.NewGauge(
			gaugeOpts("life_signal", "1 while the service is serving requests"),
		),
		HistogramRequestDuration: factory.NewHistogramVec(
			histOpts("request_duration_seconds", "Histogram of response time for requests in seconds",
				[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}),
			[]string{"route", "method", "status_code"},
		),

		CounterRenumberPasses: factory.NewCounterVec(
			counterOpts("renumber_passes", "The total number of renumbering passes, by result"),
			[]string{"result"},
		),
		CounterNumberingUpdates: factory.NewCounter(
			counterOpts("numbering_updates", "The total number of entry numbering updates applied"),
		),
		HistRenumberDuration: factory.NewHistogram(
			histOpts("renumber_duration_seconds", "Duration of a single renumbering pass in seconds",
				[]float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}),
		),

		CounterLoadCache: factory.NewCounterVec(
			counterOpts("load_cache", "Load result cache lookups, by outcome"),
			[]string{"outcome"},
		),
		HistLoadBucketsNum: factory.NewHistogram(
			histOpts("load_buckets", "Number of buckets in an aggregated load result",
				prometheus.ExponentialBuckets(1, 2, 10)),
		),
	}
}
