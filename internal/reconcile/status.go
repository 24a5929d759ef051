package reconcile

import (
	"payment-reconciler/internal/metrics"
	"payment-reconciler/internal/models"
)

// paymentStatusMap translates the PSP payment status vocabulary into backend
// transaction states. Statuses absent here map to Initial.
var paymentStatusMap = map[string]models.TransactionState{
	"paid":       models.StateSuccess,
	"authorized": models.StateSuccess,
	"canceled":   models.StateFailure,
	"failed":     models.StateFailure,
	"expired":    models.StateFailure,
	"open":       models.StateInitial,
	"pending":    models.StatePending,
}

var refundStatusMap = map[string]models.TransactionState{
	"refunded":   models.StateSuccess,
	"failed":     models.StateFailure,
	"queued":     models.StatePending,
	"pending":    models.StatePending,
	"processing": models.StatePending,
}

// MapPaymentStatus returns the backend state for a PSP payment status. The
// second return reports whether the status was in the mapping table; unknown
// statuses fall back to Initial and bump the unmapped-status counter, since
// some notification types are never expected to reach this service.
func MapPaymentStatus(pspStatus string) (models.TransactionState, bool) {
	state, ok := paymentStatusMap[pspStatus]
	if !ok {
		metrics.UnmappedStatuses.WithLabelValues("payment", pspStatus).Inc()
		return models.StateInitial, false
	}
	return state, true
}

// MapRefundStatus returns the backend state for a PSP refund status. Unknown
// statuses fall back to Initial, same as MapPaymentStatus.
func MapRefundStatus(pspStatus string) (models.TransactionState, bool) {
	state, ok := refundStatusMap[pspStatus]
	if !ok {
		metrics.UnmappedStatuses.WithLabelValues("refund", pspStatus).Inc()
		return models.StateInitial, false
	}
	return state, true
}
