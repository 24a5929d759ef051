package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment-reconciler/internal/commerce"
	"payment-reconciler/internal/kafka"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/metrics"
	"payment-reconciler/internal/models"
	"payment-reconciler/internal/psp"
	"payment-reconciler/internal/reconcile"
	"payment-reconciler/internal/storage"
	"payment-reconciler/internal/utils"
)

var (
	ErrInvalidResourceID = errors.New("resource id matches no known prefix")
	ErrOrphanPayment     = errors.New("payment has no owning order")
)

// Resource id prefixes the PSP uses for the two notification kinds.
const (
	orderPrefix   = "ord_"
	paymentPrefix = "tr_"
)

const (
	flowOrder   = "order"
	flowPayment = "payment"
	flowUnknown = "unknown"
)

// PSPClient is the read-side collaborator: current order/payment state as the
// PSP sees it.
type PSPClient interface {
	FetchOrder(ctx context.Context, orderID string) (*models.PSPOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*models.PSPPayment, error)
}

// CommerceClient is the write-side collaborator: the stored payment and the
// action-based update endpoint guarded by the version token.
type CommerceClient interface {
	GetPaymentByKey(ctx context.Context, key string) (*models.BackendPayment, error)
	ApplyActions(ctx context.Context, key string, version int, actions []models.UpdateAction) (*models.BackendPayment, error)
}

// NotificationLock guards against the same resource being reconciled twice at
// once when the PSP redelivers quickly.
type NotificationLock interface {
	Acquire(resourceID string) (bool, error)
	Release(resourceID string) error
}

// ReconcilerService processes one PSP notification end to end: fetch the PSP
// record, fetch the backend payment, compute the minimal action list, apply it
// in a single versioned write.
type ReconcilerService struct {
	psp      PSPClient
	commerce CommerceClient
	store    storage.Store
	producer *kafka.Producer
	lock     NotificationLock
	log      *logger.Logger
}

func NewReconcilerService(pspClient PSPClient, commerceClient CommerceClient, store storage.Store, producer *kafka.Producer, lock NotificationLock, log *logger.Logger) *ReconcilerService {
	return &ReconcilerService{
		psp:      pspClient,
		commerce: commerceClient,
		store:    store,
		producer: producer,
		lock:     lock,
		log:      log,
	}
}

// ProcessNotification dispatches a notification by resource-id prefix and runs
// the matching flow. Invalid ids and PSP not-found are swallowed here: they
// describe resources outside this system's concern (a manually created order,
// a test payment) and must not surface as failures. Everything else is
// recorded as failed and returned; the transport layer still acknowledges, so
// a returned error never causes a redelivery storm.
func (s *ReconcilerService) ProcessNotification(ctx context.Context, resourceID string) (*models.BackendPayment, error) {
	flow := classify(resourceID)

	if flow == flowUnknown {
		s.log.Warn("RECONCILE", fmt.Sprintf("Ignoring notification with unknown resource id: %s", resourceID))
		s.finish(resourceID, flow, models.OutcomeSkipped, 0, 0, ErrInvalidResourceID)
		return nil, nil
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(resourceID)
		if err != nil {
			s.log.Warn("RECONCILE", fmt.Sprintf("In-flight guard unavailable for %s, proceeding: %v", resourceID, err))
		} else if !acquired {
			s.log.LogReconcile("DUPLICATE", resourceID, "Resource already being reconciled, dropping duplicate delivery")
			s.finish(resourceID, flow, models.OutcomeSkipped, 0, 0, nil)
			return nil, nil
		} else {
			defer func() {
				if err := s.lock.Release(resourceID); err != nil {
					s.log.Warn("RECONCILE", fmt.Sprintf("Failed to release in-flight guard for %s: %v", resourceID, err))
				}
			}()
		}
	}

	var payment *models.BackendPayment
	var actionCount int
	var err error

	switch flow {
	case flowOrder:
		payment, actionCount, err = s.reconcileOrder(ctx, resourceID)
	case flowPayment:
		payment, actionCount, err = s.reconcilePayment(ctx, resourceID)
	}

	if err != nil {
		if errors.Is(err, psp.ErrNotFound) || errors.Is(err, ErrOrphanPayment) {
			s.log.LogReconcile("SKIPPED", resourceID, "PSP resource outside this system's concern: "+err.Error())
			s.finish(resourceID, flow, models.OutcomeSkipped, 0, 0, err)
			return nil, nil
		}
		s.log.Error("RECONCILE", fmt.Sprintf("Reconciliation of %s failed: %v", resourceID, err))
		s.finish(resourceID, flow, models.OutcomeFailed, actionCount, 0, err)
		return nil, err
	}

	version := 0
	if payment != nil {
		version = payment.Version
	}
	s.log.LogReconcile("COMPLETED", resourceID, fmt.Sprintf("Applied %d actions, backend now at version %d", actionCount, version))
	s.finish(resourceID, flow, models.OutcomeCompleted, actionCount, version, nil)
	return payment, nil
}

func (s *ReconcilerService) reconcileOrder(ctx context.Context, orderID string) (*models.BackendPayment, int, error) {
	order, err := s.psp.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}
	s.log.LogReconcile("FETCHED", orderID, fmt.Sprintf("PSP order status %q with %d payment attempts", order.Status, len(order.Payments())))

	key := reconcile.NormalizeBackendKey(orderID)
	backend, err := s.commerce.GetPaymentByKey(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	actions, err := reconcile.OrderActions(order, backend)
	if err != nil {
		return nil, 0, err
	}

	return s.apply(ctx, key, backend, actions)
}

func (s *ReconcilerService) reconcilePayment(ctx context.Context, paymentID string) (*models.BackendPayment, int, error) {
	payment, err := s.psp.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, 0, err
	}
	if payment.OrderID == "" {
		return nil, 0, fmt.Errorf("%w: %s", ErrOrphanPayment, paymentID)
	}
	s.log.LogReconcile("FETCHED", paymentID, fmt.Sprintf("PSP payment status %q with %d refunds, order %s", payment.Status, len(payment.Refunds()), payment.OrderID))

	key := reconcile.NormalizeBackendKey(payment.OrderID)
	backend, err := s.commerce.GetPaymentByKey(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	actions, err := reconcile.PaymentActions(payment, backend)
	if err != nil {
		return nil, 0, err
	}

	return s.apply(ctx, key, backend, actions)
}

// apply sends the action list in one write with the version fetched earlier.
// An empty list means the systems are already in sync; skipping the write
// keeps re-deliveries from bumping the backend version for nothing.
func (s *ReconcilerService) apply(ctx context.Context, key string, backend *models.BackendPayment, actions []models.UpdateAction) (*models.BackendPayment, int, error) {
	if len(actions) == 0 {
		s.log.LogReconcile("IN_SYNC", key, "No update actions required")
		return backend, 0, nil
	}

	for _, action := range actions {
		metrics.ActionsEmitted.WithLabelValues(action.Action).Inc()
	}

	updated, err := s.commerce.ApplyActions(ctx, key, backend.Version, actions)
	if err != nil {
		if errors.Is(err, commerce.ErrVersionConflict) {
			// A concurrent notification won the write. Fail cleanly; the
			// PSP redelivers and the next pass re-fetches a fresh version.
			s.log.Warn("RECONCILE", fmt.Sprintf("Version conflict on %s at version %d", key, backend.Version))
		}
		return nil, len(actions), err
	}
	return updated, len(actions), nil
}

// RecentRecords exposes the audit trail for a resource id.
func (s *ReconcilerService) RecentRecords(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error) {
	return s.store.ListRecordsByResource(resourceID, limit, offset)
}

// finish writes the audit record and publishes the outcome event. Neither is
// allowed to fail the reconciliation itself.
func (s *ReconcilerService) finish(resourceID, flow, outcome string, actionCount, version int, cause error) {
	metrics.ReconciliationsTotal.WithLabelValues(flow, outcome).Inc()

	errText := ""
	if cause != nil {
		errText = cause.Error()
	}

	record := &models.ReconciliationRecord{
		RecordID:       utils.GenerateRecordID(),
		ResourceID:     resourceID,
		Flow:           flow,
		Outcome:        outcome,
		ActionCount:    actionCount,
		AppliedVersion: version,
		Error:          errText,
		CreatedAt:      time.Now(),
	}
	if err := s.store.SaveRecord(record); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save reconciliation record for %s: %v", resourceID, err))
	}

	event := &models.ReconciliationEvent{
		Type:        eventTypeFor(outcome),
		ResourceID:  resourceID,
		Flow:        flow,
		ActionCount: actionCount,
		Error:       errText,
		Timestamp:   time.Now(),
	}
	if err := s.producer.PublishReconciliationEvent(event); err != nil {
		s.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s event for %s: %v", event.Type, resourceID, err))
	}
}

func eventTypeFor(outcome string) string {
	switch outcome {
	case models.OutcomeCompleted:
		return models.EventReconciliationCompleted
	case models.OutcomeFailed:
		return models.EventReconciliationFailed
	default:
		return models.EventReconciliationSkipped
	}
}

func classify(resourceID string) string {
	switch {
	case strings.HasPrefix(resourceID, orderPrefix):
		return flowOrder
	case strings.HasPrefix(resourceID, paymentPrefix):
		return flowPayment
	default:
		return flowUnknown
	}
}
