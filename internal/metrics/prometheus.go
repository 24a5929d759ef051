package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnmappedStatuses counts PSP statuses that fell through the mapping
	// tables. The mapper still returns Initial for these, so the counter is
	// the only signal that an unexpected vocabulary arrived.
	UnmappedStatuses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_unmapped_statuses_total",
			Help: "PSP statuses with no entry in the status mapping tables",
		},
		[]string{"kind", "status"},
	)

	// ReconciliationsTotal tracks processed notifications by flow and outcome.
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_reconciliations_total",
			Help: "Total number of processed PSP notifications",
		},
		[]string{"flow", "outcome"},
	)

	// ActionsEmitted tracks backend update actions by action name.
	ActionsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_actions_emitted_total",
			Help: "Backend update actions emitted by the reconciliation engine",
		},
		[]string{"action"},
	)

	// VersionConflicts counts optimistic-concurrency failures on backend writes.
	VersionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_version_conflicts_total",
			Help: "Backend writes rejected because the version token was stale",
		},
	)

	// CircuitBreakerState tracks the commerce client breaker
	// (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconciler_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit_name"},
	)
)
