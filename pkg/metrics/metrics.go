package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups the pipeline counters so wiring stays explicit instead of
// leaning on the default global registerer.
type Registry struct {
	OrdersPlaced         *prometheus.CounterVec
	PaymentsVerified     *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec

	gatherer *prometheus.Registry
}

// New builds and registers the pipeline metric set.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		OrdersPlaced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vyapar_orders_placed_total",
			Help: "Orders committed by the checkout coordinator.",
		}, []string{"payment_method"}),
		PaymentsVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vyapar_payments_verified_total",
			Help: "Payment verification attempts by outcome.",
		}, []string{"outcome"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vyapar_notification_failures_total",
			Help: "Transactional emails that could not be delivered.",
		}, []string{"template"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vyapar_http_request_duration_seconds",
			Help:    "HTTP handler latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

// Gatherer exposes the registry for the /metrics handler.
func (r *Registry) Gatherer() *prometheus.Registry {
	return r.gatherer
}
