// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "legacy_profiles"

type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	DraftSaves        *prometheus.CounterVec
	ProfilesPublished prometheus.Counter
	PaymentOrders     *prometheus.CounterVec
	PaymentVerifies   *prometheus.CounterVec
	AIPolish          *prometheus.CounterVec
	MediaUploadBytes  prometheus.Counter
	RateLimited       *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DraftSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_saves_total",
			Help:      "Draft saves by trigger (auto or manual).",
		}, []string{"trigger"}),
		ProfilesPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_published_total",
			Help:      "Profiles that became publicly visible.",
		}),
		PaymentOrders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Payment order creation attempts by tier and result.",
		}, []string{"tier", "result"}),
		PaymentVerifies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment signature verifications by result.",
		}, []string{"result"}),
		AIPolish: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_polish_requests_total",
			Help:      "AI polish requests by result code.",
		}, []string{"result"}),
		MediaUploadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes_total",
			Help:      "Bytes of media accepted for storage.",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"limiter"}),
	}
}

// NewNop registers on a throwaway registry; handy for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
