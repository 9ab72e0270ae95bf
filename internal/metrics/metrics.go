// Package metrics holds the prometheus collectors of the order pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "webstudio"

// Metrics groups the collectors updated by the services.
type Metrics struct {
	OrdersCreated    prometheus.Counter
	OrderTransitions *prometheus.CounterVec
	Payments         *prometheus.CounterVec
	PaymentVolume    *prometheus.CounterVec
	RateLimitBlocks  *prometheus.CounterVec
	CartItems        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created from a cart checkout.",
		}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by source and target status.",
		}, []string{"from", "to"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment attempts by installment, method and result.",
		}, []string{"kind", "method", "result"}),
		PaymentVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_volume_euros_total",
			Help:      "Captured payment amounts before fees.",
		}, []string{"kind"}),
		RateLimitBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_blocks_total",
			Help:      "Times a guarded action was blocked.",
		}, []string{"action"}),
		CartItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_items",
			Help:      "Number of units currently in the session cart.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.OrderTransitions, m.Payments, m.PaymentVolume, m.RateLimitBlocks, m.CartItems)
	return m
}

// OrderCreated counts a newly placed order.
func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

// OrderTransitioned counts a status change of an order.
func (m *Metrics) OrderTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(from, to).Inc()
}

// PaymentAttempted counts a charge attempt and adds captured amounts to the volume.
func (m *Metrics) PaymentAttempted(kind, method string, ok bool, amount int64) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Payments.WithLabelValues(kind, method, result).Inc()
	if ok {
		m.PaymentVolume.WithLabelValues(kind).Add(float64(amount))
	}
}

// RateLimitBlocked counts an action that hit its attempt budget.
func (m *Metrics) RateLimitBlocked(action string) {
	if m == nil {
		return
	}
	m.RateLimitBlocks.WithLabelValues(action).Inc()
}

// CartSize records the number of units in the cart.
func (m *Metrics) CartSize(units int) {
	if m == nil {
		return
	}
	m.CartItems.Set(float64(units))
}
