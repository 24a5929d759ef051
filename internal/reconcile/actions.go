package reconcile

import (
	"fmt"

	"payment-reconciler/internal/models"
)

// shouldChangeState collapses a mapped payment state into the three update
// buckets (Success, Failure, no-op) and compares the bucket against the
// transaction's current backend state. Pending, Initial and unmapped statuses
// never move a transaction that already carries a terminal state: once Success
// or Failure is written back, only the opposite definitive bucket moves it
// again, and re-entering the same bucket is a no-op.
func shouldChangeState(mapped, current models.TransactionState) bool {
	switch mapped {
	case models.StateSuccess:
		return current != models.StateSuccess
	case models.StateFailure:
		return current != models.StateFailure
	default:
		return false
	}
}

// paymentAction decides the update for one PSP payment against the backend
// transaction list. Matched transactions get at most a state change; unmatched
// payments with any non-Initial mapped state get an addTransaction carrying
// that state. The ok return makes the no-op case explicit.
func paymentAction(payment models.PSPPayment, transactions []models.Transaction, addType models.TransactionType, withTimestamp bool) (models.UpdateAction, bool, error) {
	mapped, _ := MapPaymentStatus(payment.Status)

	if tx, found := FindMatch(payment.ID, transactions); found {
		if shouldChangeState(mapped, tx.State) {
			return models.ChangeTransactionStateAction(tx.ID, mapped), true, nil
		}
		return models.UpdateAction{}, false, nil
	}

	if mapped == models.StateInitial {
		return models.UpdateAction{}, false, nil
	}

	amount, err := ToMinorUnits(payment.Amount)
	if err != nil {
		return models.UpdateAction{}, false, fmt.Errorf("payment %s: %w", payment.ID, err)
	}

	draft := models.TransactionDraft{
		Type:          addType,
		Amount:        amount,
		InteractionID: payment.ID,
		State:         mapped,
	}
	if withTimestamp {
		ts := payment.CreatedAt
		draft.Timestamp = &ts
	}
	return models.AddTransactionAction(draft), true, nil
}

// OrderPaymentAction is the order-flow variant: new transactions are typed
// Authorization and carry the PSP creation timestamp.
func OrderPaymentAction(payment models.PSPPayment, transactions []models.Transaction) (models.UpdateAction, bool, error) {
	return paymentAction(payment, transactions, models.TypeAuthorization, true)
}

// PaymentStatusAction is the payment-flow variant: new transactions are typed
// Charge and the timestamp is left for the backend to assign. The two flows
// have always disagreed on this; keep the asymmetry until the backend contract
// says otherwise.
func PaymentStatusAction(payment models.PSPPayment, transactions []models.Transaction) (models.UpdateAction, bool, error) {
	return paymentAction(payment, transactions, models.TypeCharge, false)
}

// RefundAction decides the update for one PSP refund. Refunds use the full
// five-state mapping with a plain equality check, no bucket collapsing: any
// difference between the mapped state and the stored state is written back.
func RefundAction(refund models.PSPRefund, transactions []models.Transaction) (models.UpdateAction, bool, error) {
	mapped, _ := MapRefundStatus(refund.Status)

	if tx, found := FindMatch(refund.ID, transactions); found {
		if tx.State != mapped {
			return models.ChangeTransactionStateAction(tx.ID, mapped), true, nil
		}
		return models.UpdateAction{}, false, nil
	}

	amount, err := ToMinorUnits(refund.Amount)
	if err != nil {
		return models.UpdateAction{}, false, fmt.Errorf("refund %s: %w", refund.ID, err)
	}

	return models.AddTransactionAction(models.TransactionDraft{
		Type:          models.TypeRefund,
		Amount:        amount,
		InteractionID: refund.ID,
		State:         mapped,
	}), true, nil
}

// StatusTextAction emits a setStatusInterfaceText action when the PSP order
// status differs from the text already stored on the backend payment. The
// comparison is case-sensitive string equality.
func StatusTextAction(orderStatus, currentText string) (models.UpdateAction, bool) {
	if orderStatus == currentText {
		return models.UpdateAction{}, false
	}
	return models.SetStatusInterfaceTextAction(orderStatus), true
}

// OrderActions computes the full action list for one PSP order against the
// backend payment: state changes for matched transactions first, then adds for
// unseen payment attempts, then the order-status text. The ordering is fixed
// and the whole list is applied in a single backend write. At most one add is
// emitted per interaction id in one pass.
func OrderActions(order *models.PSPOrder, backend *models.BackendPayment) ([]models.UpdateAction, error) {
	var changes []models.UpdateAction
	var adds []models.UpdateAction
	added := make(map[string]bool)

	for _, payment := range order.Payments() {
		action, ok, err := OrderPaymentAction(payment, backend.Transactions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch action.Action {
		case models.ActionAddTransaction:
			if added[payment.ID] {
				continue
			}
			added[payment.ID] = true
			adds = append(adds, action)
		default:
			changes = append(changes, action)
		}
	}

	actions := append(changes, adds...)
	if action, ok := StatusTextAction(order.Status, backend.StatusInterfaceText); ok {
		actions = append(actions, action)
	}
	return actions, nil
}

// PaymentActions computes the action list for one standalone PSP payment and
// its refunds: the payment update-or-add first, refund actions after.
func PaymentActions(payment *models.PSPPayment, backend *models.BackendPayment) ([]models.UpdateAction, error) {
	var actions []models.UpdateAction

	action, ok, err := PaymentStatusAction(*payment, backend.Transactions)
	if err != nil {
		return nil, err
	}
	if ok {
		actions = append(actions, action)
	}

	added := make(map[string]bool)
	for _, refund := range payment.Refunds() {
		refundAction, ok, err := RefundAction(refund, backend.Transactions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if refundAction.Action == models.ActionAddTransaction {
			if added[refund.ID] {
				continue
			}
			added[refund.ID] = true
		}
		actions = append(actions, refundAction)
	}

	return actions, nil
}
