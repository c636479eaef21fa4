package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custody slice's Prometheus metrics.
type Metrics struct {
	Minted        prometheus.Counter
	Burned        prometheus.Counter
	StatusChanges *prometheus.CounterVec
	Transfers     *prometheus.CounterVec
	CustodyMoves  prometheus.Counter
}

// New creates and registers the custody metrics.
func New() *Metrics {
	return &Metrics{
		Minted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_custody_tokens_minted_total",
			Help: "Total number of asset tokens minted",
		}),
		Burned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_custody_tokens_burned_total",
			Help: "Total number of asset tokens burned",
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_custody_status_changes_total",
			Help: "Total number of custody status changes by new status",
		}, []string{"status"}),
		Transfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_custody_transfers_total",
			Help: "Total number of ownership reassignments by reason",
		}, []string{"reason"}),
		CustodyMoves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurum_custody_batch_moves_total",
			Help: "Total number of tokens moved to IN_TRANSIT by custody batches",
		}),
	}
}

func (m *Metrics) IncMinted() { m.Minted.Inc() }

func (m *Metrics) IncBurned() { m.Burned.Inc() }

func (m *Metrics) IncStatusChanges(status string) { m.StatusChanges.WithLabelValues(status).Inc() }

func (m *Metrics) IncTransfers(reason string) { m.Transfers.WithLabelValues(reason).Inc() }

func (m *Metrics) AddCustodyMoves(n int) { m.CustodyMoves.Add(float64(n)) }
