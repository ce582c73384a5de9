package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wallet metrics
	WalletsCreated prometheus.Counter

	// Ledger operation metrics
	LedgerOperations *prometheus.CounterVec
	LedgerOpDuration *prometheus.HistogramVec
	LedgerOpErrors   *prometheus.CounterVec

	// Escrow metrics
	EscrowsCreated     prometheus.Counter
	EscrowsSettled     prometheus.Counter
	EscrowsCancelled   prometheus.Counter
	SettlementDuration prometheus.Histogram
	SettlementAmount   prometheus.Histogram
	FeesCollected      prometheus.Counter

	// Fee policy metrics
	FeePolicyLookups   *prometheus.CounterVec
	FeePolicyCacheHits prometheus.Counter

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_wallets_created_total",
			Help: "Total number of wallets created",
		}),

		LedgerOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_ledger_operations_total",
				Help: "Total ledger operations by type",
			},
			[]string{"operation"},
		),
		LedgerOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletd_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerOpErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_ledger_operation_errors_total",
				Help: "Total ledger operation errors by type",
			},
			[]string{"operation"},
		),

		EscrowsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_escrows_created_total",
			Help: "Total number of escrows created",
		}),
		EscrowsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_escrows_settled_total",
			Help: "Total number of escrows settled",
		}),
		EscrowsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_escrows_cancelled_total",
			Help: "Total number of escrows cancelled",
		}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_settlement_duration_seconds",
			Help:    "Duration of escrow settlements",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletd_settlement_amount",
			Help:    "Escrow settlement amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_fees_collected_total",
			Help: "Total number of fee collections",
		}),

		FeePolicyLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_fee_policy_lookups_total",
				Help: "Total fee policy resolutions by source",
			},
			[]string{"source"},
		),
		FeePolicyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_fee_policy_cache_hits_total",
			Help: "Total fee policy cache hits",
		}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "walletd_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletd_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletd_outbox_failures_total",
			Help: "Total outbox publish failures",
		}),
	}
}

// ObserveLedgerOp records the outcome of a single ledger primitive.
func (m *Metrics) ObserveLedgerOp(operation string, elapsed time.Duration, err error) {
	m.LedgerOperations.WithLabelValues(operation).Inc()
	m.LedgerOpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err != nil {
		m.LedgerOpErrors.WithLabelValues(operation).Inc()
	}
}
