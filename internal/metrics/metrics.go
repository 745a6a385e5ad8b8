// Package metrics exposes Prometheus counters for the dashboard's backend traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

// Recorder is what the API client and session layer report into
type Recorder interface {
	RecordRequest(method string, statusCode int, duration time.Duration)
	RecordRefresh(outcome string)
	RecordQueued()
	RecordLogin(success bool)
}

// Collector records into Prometheus
type Collector struct {
	requests     *prometheus.CounterVec
	latency      prometheus.Histogram
	refreshes    *prometheus.CounterVec
	queued       prometheus.Counter
	logins       *prometheus.CounterVec
	registryHTTP http.Handler
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg.
// The registry must also be a Gatherer for Handler to serve it.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vineyard_api_requests_total",
			Help: "Backend API requests by method and status code",
		}, []string{"method", "status_code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vineyard_api_request_duration_seconds",
			Help:    "Backend API request latency",
			Buckets: prometheus.DefBuckets,
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vineyard_token_refresh_total",
			Help: "Access token refreshes by outcome",
		}, []string{"outcome"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vineyard_requests_queued_total",
			Help: "Requests queued behind an in-flight token refresh",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vineyard_logins_total",
			Help: "Dashboard login attempts by result",
		}, []string{"result"}),
	}

	reg.MustRegister(c.requests, c.latency, c.refreshes, c.queued, c.logins)
	c.registryHTTP = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return c
}

// RecordRequest records one backend call. statusCode 0 means a transport failure.
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.latency.Observe(duration.Seconds())
}

func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordQueued() {
	c.queued.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return c.registryHTTP
}

// Noop discards everything
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) RecordRequest(string, int, time.Duration) {}
func (Noop) RecordRefresh(string)                     {}
func (Noop) RecordQueued()                            {}
func (Noop) RecordLogin(bool)                         {}
