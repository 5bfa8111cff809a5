package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot collectors on a private registry, so several
// instances (tests, multiple strategies) never collide.
type Metrics struct {
	registry *prometheus.Registry

	tradeRequests *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	status        *prometheus.GaugeVec
	openPositions *prometheus.GaugeVec
	pendingOrders *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tradeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgebot_trade_requests_total",
				Help: "Trade requests sent to the terminal",
			},
			[]string{"action", "result"},
		),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgebot_cycles_total",
				Help: "Polling cycles by outcome",
			},
			[]string{"result"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hedgebot_cycle_duration_seconds",
				Help:    "Duration of one polling cycle",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgebot_status",
				Help: "Current transaction status per side (enum value)",
			},
			[]string{"side"},
		),
		openPositions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgebot_open_positions",
				Help: "Open positions per side",
			},
			[]string{"side"},
		),
		pendingOrders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgebot_pending_orders",
				Help: "Pending orders per ladder role",
			},
			[]string{"role"},
		),
	}

	m.registry.MustRegister(
		m.tradeRequests,
		m.cycles,
		m.cycleDuration,
		m.status,
		m.openPositions,
		m.pendingOrders,
	)
	return m
}

// ObserveRequest counts one trade request; result is "ok", "rejected" or "error".
func (m *Metrics) ObserveRequest(action, result string) {
	m.tradeRequests.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetStatus(side string, value int) {
	m.status.WithLabelValues(side).Set(float64(value))
}

func (m *Metrics) SetPositions(side string, n int) {
	m.openPositions.WithLabelValues(side).Set(float64(n))
}

func (m *Metrics) SetPendingOrders(role string, n int) {
	m.pendingOrders.WithLabelValues(role).Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
