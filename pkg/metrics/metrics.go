// Package metrics holds the Prometheus collectors exported by the API and worker binaries.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roperito"

// HTTPMetrics counts and times served requests by route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// Observe records one served request.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OrderMetrics counts order lifecycle transitions.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// NewOrderMetrics registers the order collectors.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions committed.",
		}, []string{"to"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_reservation_conflicts_total",
			Help:      "Order creations rejected because the product was already reserved.",
		}),
	}
	reg.MustRegister(m.transitions, m.conflicts)
	return m
}

// Transition records an order moving into status.
func (m *OrderMetrics) Transition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// ReservationConflict records a lost reservation race.
func (m *OrderMetrics) ReservationConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// RelayMetrics tracks realtime deliveries.
type RelayMetrics struct {
	deliveries  *prometheus.CounterVec
	connections prometheus.Gauge
}

// Delivery outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeDropped   = "dropped"
	OutcomeOffline   = "offline"
)

// NewRelayMetrics registers the relay collectors.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	m := &RelayMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_deliveries_total",
			Help:      "Realtime events handed to connections, by outcome.",
		}, []string{"event", "outcome"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_connections",
			Help:      "Open realtime connections on this instance.",
		}),
	}
	reg.MustRegister(m.deliveries, m.connections)
	return m
}

// Delivered records the outcome of handing event to one connection or user.
func (m *RelayMetrics) Delivered(event, outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(event), outcome).Inc()
}

// Connected adjusts the open connection gauge by delta.
func (m *RelayMetrics) Connected(delta int) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Add(float64(delta))
}
