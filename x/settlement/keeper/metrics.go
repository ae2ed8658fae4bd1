package keeper

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementMetrics holds all Prometheus metrics for the settlement module
type SettlementMetrics struct {
	// Operation metrics
	Operations        *prometheus.CounterVec
	OperationFailures *prometheus.CounterVec

	// Session metrics
	SessionsCreated   *prometheus.CounterVec
	SessionsSettled   *prometheus.CounterVec
	ProofsAccepted    prometheus.Counter
	ProofsReplayed    prometheus.Counter
	ProvenUnits       prometheus.Counter
	SettlementPayouts *prometheus.CounterVec

	// Host metrics
	HostsRegistered prometheus.Counter
	HostsActive     prometheus.Gauge
	HostSlashes     *prometheus.CounterVec

	// Ledger metrics
	EarningsWithdrawn *prometheus.CounterVec
	TreasuryAccrued   *prometheus.CounterVec
	TreasuryWithdrawn *prometheus.CounterVec
}

var (
	settlementMetricsOnce sync.Once
	settlementMetrics     *SettlementMetrics
)

// NewSettlementMetrics creates and registers settlement metrics (singleton pattern)
func NewSettlementMetrics() *SettlementMetrics {
	settlementMetricsOnce.Do(func() {
		settlementMetrics = &SettlementMetrics{
			Operations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "operations_total",
					Help:      "Committed state-changing operations",
				},
				[]string{"op"},
			),
			OperationFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "operation_failures_total",
					Help:      "Rejected operations by error category",
				},
				[]string{"op", "category"},
			),
			SessionsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "sessions_created_total",
					Help:      "Sessions opened",
				},
				[]string{"denom", "delegated"},
			),
			SessionsSettled: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "sessions_settled_total",
					Help:      "Sessions that reached a terminal state",
				},
				[]string{"status", "early_cancel"},
			),
			ProofsAccepted: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "proofs_accepted_total",
					Help:      "Proof checkpoints accepted",
				},
			),
			ProofsReplayed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "proofs_replayed_total",
					Help:      "Proof checkpoints rejected by the replay guard",
				},
			),
			ProvenUnits: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "proven_units_total",
					Help:      "Work units accepted across all sessions",
				},
			),
			SettlementPayouts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "settlement_amount_total",
					Help:      "Settled amounts by denom and destination",
				},
				[]string{"denom", "destination"},
			),
			HostsRegistered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "hosts_registered_total",
					Help:      "Host registrations",
				},
			),
			HostsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "hosts_active",
					Help:      "Current number of registered hosts",
				},
			),
			HostSlashes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "host_slashes_total",
					Help:      "Applied slashes",
				},
				[]string{"auto_unregistered"},
			),
			EarningsWithdrawn: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "earnings_withdrawn_total",
					Help:      "Earnings paid out to hosts",
				},
				[]string{"denom"},
			),
			TreasuryAccrued: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "treasury_accrued_total",
					Help:      "Protocol fees and slashed stake accrued",
				},
				[]string{"denom", "source"},
			),
			TreasuryWithdrawn: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "settlement",
					Name:      "treasury_withdrawn_total",
					Help:      "Treasury withdrawals",
				},
				[]string{"denom"},
			),
		}
	})
	return settlementMetrics
}

// addAmount adds an amount to a counter, skipping values outside int64.
func addAmount(c prometheus.Counter, amount math.Int) {
	if amount.IsInt64() && amount.Int64() > 0 {
		c.Add(float64(amount.Int64()))
	}
}
