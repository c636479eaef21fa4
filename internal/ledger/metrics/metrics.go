package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger slice's Prometheus metrics.
type Metrics struct {
	AccountsCreated prometheus.Counter
	BalanceUpdates  *prometheus.CounterVec
}

// New creates and registers the ledger metrics.
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_ledger_accounts_created_total",
			Help: "Total number of gold accounts created",
		}),
		BalanceUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_ledger_balance_updates_total",
			Help: "Total number of applied balance deltas by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncAccountsCreated() {
	m.AccountsCreated.Inc()
}

func (m *Metrics) IncBalanceUpdates(reason string) {
	m.BalanceUpdates.WithLabelValues(reason).Inc()
}
