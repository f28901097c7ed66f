// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerSeedsTotal             *prometheus.CounterVec
	crawlerFetchesTotal           *prometheus.CounterVec
	crawlerFetchDurationSeconds   *prometheus.HistogramVec
	crawlerBytesTotal             *prometheus.CounterVec
	crawlerPermitsInUse           prometheus.Gauge
	crawlerRowsWrittenTotal       prometheus.Counter
	crawlerSinkErrorsTotal        prometheus.Counter
	crawlerRunsTotal              *prometheus.CounterVec
	crawlerRecorderErrorsTotal    *prometheus.CounterVec
	httpRequestsTotal             *prometheus.CounterVec
	httpRequestDurationSeconds    *prometheus.HistogramVec
	crawlerRateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerSeedsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_seeds_total",
				Help: "Total number of seed URLs processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetches_total",
				Help: "Total number of page and API fetches, labeled by kind and status.",
			},
			[]string{"kind", "status"},
		)

		crawlerFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		)

		crawlerBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		crawlerPermitsInUse = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_permits_in_use",
				Help: "Number of seed pipelines currently holding a concurrency permit.",
			},
		)

		crawlerRowsWrittenTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_rows_written_total",
				Help: "Total number of CSV rows written by the result sink.",
			},
		)

		crawlerSinkErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_sink_errors_total",
				Help: "Total number of result sink writes that failed and were dropped.",
			},
		)

		crawlerRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_runs_total",
				Help: "Total number of crawl runs, labeled by status.",
			},
			[]string{"status"},
		)

		crawlerRecorderErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_recorder_errors_total",
				Help: "Total number of failed record mirrors, labeled by recorder.",
			},
			[]string{"recorder"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)

		crawlerRateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSeed counts one finished seed pipeline.
func ObserveSeed(outcome string) {
	Init()
	crawlerSeedsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one page or API fetch.
func ObserveFetch(kind, status string, duration time.Duration) {
	Init()
	crawlerFetchesTotal.WithLabelValues(kind, status).Inc()
	crawlerFetchDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveBytes adds fetched body bytes for a site.
func ObserveBytes(site string, n int) {
	if n <= 0 {
		return
	}
	Init()
	crawlerBytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(n))
}

// IncPermits increments the permits-in-use gauge.
func IncPermits() {
	Init()
	crawlerPermitsInUse.Inc()
}

// DecPermits decrements the permits-in-use gauge.
func DecPermits() {
	Init()
	crawlerPermitsInUse.Dec()
}

// ObserveRowWritten counts a successful sink write.
func ObserveRowWritten() {
	Init()
	crawlerRowsWrittenTotal.Inc()
}

// ObserveSinkError counts a dropped sink write.
func ObserveSinkError() {
	Init()
	crawlerSinkErrorsTotal.Inc()
}

// ObserveRun counts a crawl run by status.
func ObserveRun(status string) {
	Init()
	crawlerRunsTotal.WithLabelValues(status).Inc()
}

// ObserveRecorderError counts a failed record mirror.
func ObserveRecorderError(recorder string) {
	Init()
	crawlerRecorderErrorsTotal.WithLabelValues(recorder).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	crawlerRateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
