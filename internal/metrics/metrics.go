// Package metrics holds the Prometheus collectors shared by the GitHub client, the callback
// orchestrator and the HTTP layer. Kept standalone to avoid import cycles.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registerErr  error

	// ProviderRequestDuration tracks latency of outbound calls to GitHub, by endpoint and outcome.
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_provider_request_duration_ms",
		Help:    "Latency of outbound GitHub calls in milliseconds",
		Buckets: prometheus.ExponentialBuckets(5, 2, 11),
	}, []string{"endpoint", "outcome"})

	// ProviderRequestsTotal counts outbound calls to GitHub, by endpoint and outcome.
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "github_provider_requests_total",
		Help: "Outbound GitHub calls",
	}, []string{"endpoint", "outcome"})

	// CallbacksTotal counts finished callback flows by result (ok or the failing step).
	CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "github_callbacks_total",
		Help: "Finished OAuth callback flows by result",
	}, []string{"result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Processed HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the sign-in rate limiter",
	}, []string{"path"})
)

// Register registers every collector on reg (or the default registerer if nil).
// Safe to call more than once; duplicates are ignored.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			ProviderRequestDuration,
			ProviderRequestsTotal,
			CallbacksTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			RateLimitedTotal,
		} {
			if err := registerCollector(reg, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ObserveProviderCall records one outbound GitHub call.
func ObserveProviderCall(endpoint, outcome string, d time.Duration) {
	ProviderRequestDuration.WithLabelValues(endpoint, outcome).Observe(float64(d.Milliseconds()))
	ProviderRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCallback records the result of a callback flow.
func RecordCallback(result string) {
	CallbacksTotal.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}
