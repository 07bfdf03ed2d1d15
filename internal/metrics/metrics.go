// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers counters for repository fetches and proxy calls.
type Collector struct {
	fetchSuccess prometheus.Counter
	fetchFail    *prometheus.CounterVec
	fetchStale   prometheus.Counter
	proxyStatus  *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	signIns      prometheus.Counter

	handler http.Handler
}

// NewCollector creates a Collector and registers its metrics on a fresh
// registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gitgenie_fetch_success_total",
			Help: "Total successful repository fetches.",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitgenie_fetch_fail_total",
			Help: "Total failed repository fetches by reason.",
		}, []string{"reason"}),
		fetchStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gitgenie_fetch_stale_discarded_total",
			Help: "Total stale fetch completions discarded by the sequence guard.",
		}),
		proxyStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gitgenie_proxy_status_total",
			Help: "Proxy endpoint responses by HTTP status.",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gitgenie_fetch_latency_seconds",
			Help:    "Repository fetch latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		signIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gitgenie_sign_ins_total",
			Help: "Total completed GitHub sign-ins.",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchStale,
		c.proxyStatus,
		c.fetchLatency,
		c.signIns,
	)

	c.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return c
}

// RecordFetchSuccess counts one successful fetch.
func (c *Collector) RecordFetchSuccess(duration time.Duration) {
	c.fetchSuccess.Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordFetchFailure counts one failed fetch with its reason.
func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordStaleDiscard counts one stale completion discarded.
func (c *Collector) RecordStaleDiscard() {
	c.fetchStale.Inc()
}

// RecordProxyStatus counts one proxy endpoint response.
func (c *Collector) RecordProxyStatus(statusCode int) {
	c.proxyStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSignIn counts one completed sign-in.
func (c *Collector) RecordSignIn() {
	c.signIns.Inc()
}

// Handler serves the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return c.handler
}
