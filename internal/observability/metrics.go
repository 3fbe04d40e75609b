package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a fetch run.
type Metrics struct {
	YearsDownloaded prometheus.Counter
	YearsSkipped    prometheus.Counter
	RetrieveErrors  prometheus.Counter
	BytesDownloaded prometheus.Counter
	FetchRunning    prometheus.Gauge
	LastSuccess     prometheus.Gauge // unix seconds of the last completed run

	RetrieveDuration prometheus.Histogram

	// Completion event publishing.
	NotifyErrors prometheus.Counter

	// Mapbox point resolution, labels: outcome={success,error,empty}.
	GeocodeRequests    *prometheus.CounterVec
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all fetch metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.YearsDownloaded,
		m.YearsSkipped,
		m.RetrieveErrors,
		m.BytesDownloaded,
		m.FetchRunning,
		m.LastSuccess,
		m.RetrieveDuration,
		m.NotifyErrors,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		YearsDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "years_downloaded_total",
			Help:      "Years retrieved from the provider and written to disk.",
		}),
		YearsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "years_skipped_total",
			Help:      "Years skipped because the output file already existed.",
		}),
		RetrieveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "retrieve_errors_total",
			Help:      "Retrieval requests that failed and aborted the run.",
		}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "bytes_downloaded_total",
			Help:      "Total size of files written by successful retrievals.",
		}),
		FetchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "era5_fetch",
			Name:      "running",
			Help:      "1 while a fetch run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "era5_fetch",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that processed every year.",
		}),
		RetrieveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "era5_fetch",
			Name:      "retrieve_duration_seconds",
			Help:      "Wall time of one yearly retrieval, queueing included.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
		}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "notify_errors_total",
			Help:      "Completion events that could not be published.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5_fetch",
			Name:      "geocode_requests_total",
			Help:      "Place geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "era5_fetch",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
