package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the settlement slice's Prometheus metrics.
type Metrics struct {
	Prepared  prometheus.Counter
	Signed    prometheus.Counter
	Executed  prometheus.Counter
	Cancelled prometheus.Counter
}

// New creates and registers the settlement metrics.
func New() *Metrics {
	return &Metrics{
		Prepared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_settlement_orders_prepared_total",
			Help: "Total number of settlement orders prepared",
		}),
		Signed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_settlement_orders_signed_total",
			Help: "Total number of settlement orders countersigned",
		}),
		Executed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_settlement_orders_executed_total",
			Help: "Total number of settlement orders executed",
		}),
		Cancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_settlement_orders_cancelled_total",
			Help: "Total number of settlement orders cancelled",
		}),
	}
}

func (m *Metrics) IncPrepared() {
	m.Prepared.Inc()
}

func (m *Metrics) IncSigned() {
	m.Signed.Inc()
}

func (m *Metrics) IncExecuted() {
	m.Executed.Inc()
}

func (m *Metrics) IncCancelled() {
	m.Cancelled.Inc()
}
