package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Replay metrics
	ReplaysCompleted prometheus.Counter
	ReplayDuration   prometheus.Histogram
	RecordsProcessed *prometheus.CounterVec
	RecordsIgnored   *prometheus.CounterVec
	LookupDepth      prometheus.Histogram

	// Dispute metrics
	DisputesOpened   prometheus.Counter
	DisputesResolved prometheus.Counter
	Chargebacks      prometheus.Counter
	AccountsLocked   prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Replay metrics
		ReplaysCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payreplay_replays_completed_total",
			Help: "Total number of replay runs completed",
		}),
		ReplayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "payreplay_replay_duration_seconds",
			Help:    "Duration of replay runs",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payreplay_records_processed_total",
				Help: "Total ledger records processed by kind",
			},
			[]string{"kind"},
		),
		RecordsIgnored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payreplay_records_ignored_total",
				Help: "Total ledger records ignored by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		LookupDepth: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "payreplay_lookup_depth_records",
			Help:    "Records scanned per backward lookup",
			Buckets: prometheus.ExponentialBuckets(1, 10, 6),
		}),

		// Dispute metrics
		DisputesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payreplay_disputes_opened_total",
			Help: "Total number of disputes opened",
		}),
		DisputesResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payreplay_disputes_resolved_total",
			Help: "Total number of disputes resolved",
		}),
		Chargebacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payreplay_chargebacks_total",
			Help: "Total number of chargebacks applied",
		}),
		AccountsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payreplay_accounts_locked_total",
			Help: "Total number of accounts frozen by a chargeback",
		}),
	}
}
