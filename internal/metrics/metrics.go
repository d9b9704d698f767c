package metrics

import (
	"net/http"
	"time"

	"stock-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsActive prometheus.Gauge
	// ConnectionsTotal counts accepted sockets by result (accepted, rejected).
	ConnectionsTotal *prometheus.CounterVec
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	LoginFailures    prometheus.Counter
	Lockouts         prometheus.Counter
	Transactions     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "stock_connections_active",
			Help: "Client connections currently open",
		}),
		ConnectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_connections_total",
			Help: "Client connections by accept result",
		}, []string{"result"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_requests_total",
			Help: "Requests by action and outcome",
		}, []string{"action", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stock_request_duration_seconds",
			Help:    "Request handling latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"action"}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "stock_login_failures_total",
			Help: "Failed login attempts",
		}),
		Lockouts: f.NewCounter(prometheus.CounterOpts{
			Name: "stock_login_lockouts_total",
			Help: "Login attempts refused because the origin and username are locked out",
		}),
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_ledger_transactions_total",
			Help: "Ledger applications by type and outcome",
		}, []string{"type", "outcome"}),
	}
}

func (m *Metrics) ObserveRequest(action, outcome string, elapsed time.Duration) {
	m.Requests.WithLabelValues(action, outcome).Inc()
	m.RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTransaction(kind domain.TransactionType, outcome string) {
	m.Transactions.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveLoginFailure() { m.LoginFailures.Inc() }

func (m *Metrics) ObserveLockout() { m.Lockouts.Inc() }

func (m *Metrics) ConnectionOpened() {
	m.ConnectionsTotal.WithLabelValues("accepted").Inc()
	m.ConnectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() { m.ConnectionsActive.Dec() }

func (m *Metrics) ConnectionRejected() { m.ConnectionsTotal.WithLabelValues("rejected").Inc() }
