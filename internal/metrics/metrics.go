package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seekeradv"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	paymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_initiated_total",
			Help:      "Payment records created by method.",
		},
		[]string{"method"},
	)

	paymentsReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_reconciled_total",
			Help:      "Gateway signals applied to payment records by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Gateway callbacks by gateway and acknowledgement status.",
		},
		[]string{"gateway", "status"},
	)

	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of outbound payment gateway calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"gateway", "result"},
	)

	feedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "booking_feed_subscribers",
			Help:      "Open websocket subscriptions to booking feeds.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, paymentsInitiated, paymentsReconciled, webhooks, gatewayLatency, feedSubscribers)
	})
}

func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

func IncPaymentInitiated(method string) {
	paymentsInitiated.WithLabelValues(method).Inc()
}

func IncPaymentReconciled(method, outcome string) {
	paymentsReconciled.WithLabelValues(method, outcome).Inc()
}

func IncWebhook(gateway, status string) {
	webhooks.WithLabelValues(gateway, status).Inc()
}

// ObserveGateway records the duration of one gateway call since start.
func ObserveGateway(gateway string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	gatewayLatency.WithLabelValues(gateway, result).Observe(time.Since(start).Seconds())
}

func SetFeedSubscribers(n int) {
	feedSubscribers.Set(float64(n))
}
