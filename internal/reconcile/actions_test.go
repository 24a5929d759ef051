package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciler/internal/models"
)

func pspPayment(id, status, value string) models.PSPPayment {
	return models.PSPPayment{
		ID:        id,
		Status:    status,
		Amount:    models.PSPAmount{Value: value, Currency: "EUR"},
		CreatedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

// applyActions mirrors what the backend would do with the emitted actions, so
// idempotence can be checked by running the factory again on the result.
func applyActions(backend models.BackendPayment, actions []models.UpdateAction) models.BackendPayment {
	for i, action := range actions {
		switch action.Action {
		case models.ActionAddTransaction:
			backend.Transactions = append(backend.Transactions, models.Transaction{
				ID:            "txn-new-" + string(rune('a'+i)),
				Type:          action.Transaction.Type,
				Amount:        action.Transaction.Amount,
				InteractionID: action.Transaction.InteractionID,
				State:         action.Transaction.State,
			})
		case models.ActionChangeTransactionState:
			for j := range backend.Transactions {
				if backend.Transactions[j].ID == action.TransactionID {
					backend.Transactions[j].State = action.State
				}
			}
		case models.ActionSetStatusInterfaceText:
			backend.StatusInterfaceText = action.InterfaceText
		}
	}
	backend.Version++
	return backend
}

func TestOrderActionsEndToEnd(t *testing.T) {
	order := &models.PSPOrder{
		ID:     "ord_12345",
		Status: "paid",
		Embedded: &models.OrderEmbedded{
			Payments: []models.PSPPayment{
				pspPayment("tr_PT2VFFtKEu", "expired", "10.00"),
				pspPayment("tr_ncaPcAhuUV", "paid", "10.00"),
			},
		},
	}
	backend := &models.BackendPayment{
		ID:      "ct-payment-1",
		Key:     "ord_12345",
		Version: 25,
		Transactions: []models.Transaction{
			{ID: "txn-1", Type: models.TypeAuthorization, InteractionID: "tr_ncaPcAhuUV", State: models.StatePending},
		},
		StatusInterfaceText: "created",
	}

	actions, err := OrderActions(order, backend)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	// State changes first, then adds, then the status text.
	assert.Equal(t, models.ActionChangeTransactionState, actions[0].Action)
	assert.Equal(t, "txn-1", actions[0].TransactionID)
	assert.Equal(t, models.StateSuccess, actions[0].State)

	assert.Equal(t, models.ActionAddTransaction, actions[1].Action)
	require.NotNil(t, actions[1].Transaction)
	assert.Equal(t, "tr_PT2VFFtKEu", actions[1].Transaction.InteractionID)
	assert.Equal(t, models.TypeAuthorization, actions[1].Transaction.Type)
	assert.Equal(t, models.StateFailure, actions[1].Transaction.State)
	assert.NotNil(t, actions[1].Transaction.Timestamp)
	assert.Equal(t, int64(1000), actions[1].Transaction.Amount.CentAmount)

	assert.Equal(t, models.ActionSetStatusInterfaceText, actions[2].Action)
	assert.Equal(t, "paid", actions[2].InterfaceText)
}

func TestOrderActionsIdempotent(t *testing.T) {
	order := &models.PSPOrder{
		ID:     "ord_777",
		Status: "paid",
		Embedded: &models.OrderEmbedded{
			Payments: []models.PSPPayment{
				pspPayment("tr_one", "paid", "25.00"),
				pspPayment("tr_two", "failed", "25.00"),
			},
		},
	}
	backend := models.BackendPayment{Key: "ord_777", Version: 3}

	first, err := OrderActions(order, &backend)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	synced := applyActions(backend, first)

	second, err := OrderActions(order, &synced)
	require.NoError(t, err)
	assert.Empty(t, second, "second pass over synced state must be a no-op")
}

func TestOrderActionsNoDuplicateAdds(t *testing.T) {
	// The same payment attempt delivered twice in one order payload must
	// still produce a single addTransaction.
	order := &models.PSPOrder{
		ID:     "ord_dup",
		Status: "paid",
		Embedded: &models.OrderEmbedded{
			Payments: []models.PSPPayment{
				pspPayment("tr_same", "paid", "10.00"),
				pspPayment("tr_same", "paid", "10.00"),
			},
		},
	}
	backend := &models.BackendPayment{Key: "ord_dup", StatusInterfaceText: "paid"}

	actions, err := OrderActions(order, backend)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionAddTransaction, actions[0].Action)
}

func TestOrderActionsPendingDoesNotAdd(t *testing.T) {
	// open maps to Initial and must not create a transaction.
	order := &models.PSPOrder{
		ID:     "ord_open",
		Status: "created",
		Embedded: &models.OrderEmbedded{
			Payments: []models.PSPPayment{pspPayment("tr_open", "open", "10.00")},
		},
	}
	backend := &models.BackendPayment{Key: "ord_open", StatusInterfaceText: "created"}

	actions, err := OrderActions(order, backend)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestStateRatchet(t *testing.T) {
	transactions := []models.Transaction{
		{ID: "txn-1", InteractionID: "tr_X", State: models.StateSuccess},
	}

	t.Run("same bucket is a no-op", func(t *testing.T) {
		for _, status := range []string{"paid", "authorized"} {
			_, ok, err := OrderPaymentAction(pspPayment("tr_X", status, "10.00"), transactions)
			require.NoError(t, err)
			assert.False(t, ok, "status %s must not move a Success transaction", status)
		}
	})

	t.Run("non-definitive statuses never move a terminal state", func(t *testing.T) {
		for _, status := range []string{"pending", "open", "something-new"} {
			_, ok, err := OrderPaymentAction(pspPayment("tr_X", status, "10.00"), transactions)
			require.NoError(t, err)
			assert.False(t, ok, "status %s must not move a Success transaction", status)
		}
	})

	t.Run("failure bucket still moves it", func(t *testing.T) {
		action, ok, err := OrderPaymentAction(pspPayment("tr_X", "failed", "10.00"), transactions)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.ActionChangeTransactionState, action.Action)
		assert.Equal(t, models.StateFailure, action.State)
	})
}

func TestPaymentStatusActionOmitsTimestamp(t *testing.T) {
	action, ok, err := PaymentStatusAction(pspPayment("tr_new", "paid", "15.00"), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, action.Transaction)
	assert.Equal(t, models.TypeCharge, action.Transaction.Type)
	assert.Nil(t, action.Transaction.Timestamp)
}

func TestRefundActionUnmatchedProducesAdd(t *testing.T) {
	refund := models.PSPRefund{
		ID:     "re_123",
		Status: "refunded",
		Amount: models.PSPAmount{Value: "-0.9", Currency: "USD"},
	}

	action, ok, err := RefundAction(refund, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, action.Transaction)
	assert.Equal(t, models.TypeRefund, action.Transaction.Type)
	assert.Equal(t, models.StateSuccess, action.Transaction.State)
	assert.Equal(t, "re_123", action.Transaction.InteractionID)
	assert.Equal(t, int64(-9), action.Transaction.Amount.CentAmount)
}

func TestRefundActionDirectEquality(t *testing.T) {
	transactions := []models.Transaction{
		{ID: "txn-r", Type: models.TypeRefund, InteractionID: "re_1", State: models.StatePending},
	}

	t.Run("pending to pending is a no-op", func(t *testing.T) {
		refund := models.PSPRefund{ID: "re_1", Status: "processing", Amount: models.PSPAmount{Value: "1.00", Currency: "EUR"}}
		_, ok, err := RefundAction(refund, transactions)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("pending to refunded updates", func(t *testing.T) {
		refund := models.PSPRefund{ID: "re_1", Status: "refunded", Amount: models.PSPAmount{Value: "1.00", Currency: "EUR"}}
		action, ok, err := RefundAction(refund, transactions)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.ActionChangeTransactionState, action.Action)
		assert.Equal(t, "txn-r", action.TransactionID)
		assert.Equal(t, models.StateSuccess, action.State)
	})
}

func TestPaymentActionsOrderingAndIdempotence(t *testing.T) {
	payment := &models.PSPPayment{
		ID:      "tr_main",
		Status:  "paid",
		Amount:  models.PSPAmount{Value: "30.00", Currency: "EUR"},
		OrderID: "ord_555",
		Embedded: &models.PaymentEmbedded{
			Refunds: []models.PSPRefund{
				{ID: "re_a", Status: "refunded", Amount: models.PSPAmount{Value: "5.00", Currency: "EUR"}},
			},
		},
	}
	backend := models.BackendPayment{Key: "ord_555", Version: 7}

	first, err := PaymentActions(payment, &backend)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "tr_main", first[0].Transaction.InteractionID)
	assert.Equal(t, "re_a", first[1].Transaction.InteractionID)

	synced := applyActions(backend, first)

	second, err := PaymentActions(payment, &synced)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestStatusTextAction(t *testing.T) {
	t.Run("differs", func(t *testing.T) {
		action, ok := StatusTextAction("paid", "created")
		require.True(t, ok)
		assert.Equal(t, models.ActionSetStatusInterfaceText, action.Action)
		assert.Equal(t, "paid", action.InterfaceText)
	})

	t.Run("equal", func(t *testing.T) {
		_, ok := StatusTextAction("paid", "paid")
		assert.False(t, ok)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, ok := StatusTextAction("Paid", "paid")
		assert.True(t, ok)
	})
}
