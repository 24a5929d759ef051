package models

import (
	"time"
)

// TransactionState is the backend's canonical transaction-state vocabulary.
type TransactionState string

const (
	StateInitial TransactionState = "Initial"
	StatePending TransactionState = "Pending"
	StateSuccess TransactionState = "Success"
	StateFailure TransactionState = "Failure"
)

type TransactionType string

const (
	TypeAuthorization TransactionType = "Authorization"
	TypeCharge        TransactionType = "Charge"
	TypeRefund        TransactionType = "Refund"
)

// Money is the backend's minor-unit money representation.
type Money struct {
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int32  `json:"fractionDigits"`
}

// Transaction is a backend-assigned record tracking one PSP payment or refund.
// InteractionID carries the PSP record id used to correlate the two systems.
type Transaction struct {
	ID            string           `json:"id"`
	Type          TransactionType  `json:"type"`
	Amount        Money            `json:"amount"`
	InteractionID string           `json:"interactionId"`
	State         TransactionState `json:"state"`
}

// BackendPayment aggregates all transactions for one PSP order (or standalone
// payment). Version is the optimistic-concurrency token required on every write.
type BackendPayment struct {
	ID                  string        `json:"id"`
	Version             int           `json:"version"`
	Key                 string        `json:"key"`
	Transactions        []Transaction `json:"transactions"`
	StatusInterfaceText string        `json:"statusInterfaceText,omitempty"`
}

// Update action names understood by the backend.
const (
	ActionAddTransaction         = "addTransaction"
	ActionChangeTransactionState = "changeTransactionState"
	ActionSetStatusInterfaceText = "setStatusInterfaceText"
)

// TransactionDraft is the payload of an addTransaction action. Timestamp is
// optional; when omitted the backend assigns its own.
type TransactionDraft struct {
	Type          TransactionType  `json:"type"`
	Amount        Money            `json:"amount"`
	InteractionID string           `json:"interactionId"`
	State         TransactionState `json:"state"`
	Timestamp     *time.Time       `json:"timestamp,omitempty"`
}

// UpdateAction is the only mutation primitive the backend accepts. Exactly one
// of the per-action field groups is populated, selected by Action.
type UpdateAction struct {
	Action        string            `json:"action"`
	Transaction   *TransactionDraft `json:"transaction,omitempty"`
	TransactionID string            `json:"transactionId,omitempty"`
	State         TransactionState  `json:"state,omitempty"`
	InterfaceText string            `json:"interfaceText,omitempty"`
}

// AddTransactionAction builds an addTransaction update command.
func AddTransactionAction(draft TransactionDraft) UpdateAction {
	return UpdateAction{
		Action:      ActionAddTransaction,
		Transaction: &draft,
	}
}

// ChangeTransactionStateAction builds a changeTransactionState update command.
func ChangeTransactionStateAction(transactionID string, state TransactionState) UpdateAction {
	return UpdateAction{
		Action:        ActionChangeTransactionState,
		TransactionID: transactionID,
		State:         state,
	}
}

// SetStatusInterfaceTextAction builds a setStatusInterfaceText update command.
func SetStatusInterfaceTextAction(text string) UpdateAction {
	return UpdateAction{
		Action:        ActionSetStatusInterfaceText,
		InterfaceText: text,
	}
}
