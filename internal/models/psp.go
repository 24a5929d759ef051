package models

import (
	"time"
)

// PSPAmount is the decimal-string money representation used by the PSP API.
type PSPAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// PSPPayment represents one charge attempt as reported by the PSP.
// The PSP is the source of truth; the struct is never mutated after fetch.
type PSPPayment struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Amount    PSPAmount         `json:"amount"`
	CreatedAt time.Time         `json:"createdAt"`
	OrderID   string            `json:"orderId,omitempty"`
	Embedded  *PaymentEmbedded  `json:"_embedded,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type PaymentEmbedded struct {
	Refunds []PSPRefund `json:"refunds,omitempty"`
}

// Refunds returns the embedded refunds, if any were requested on fetch.
func (p *PSPPayment) Refunds() []PSPRefund {
	if p.Embedded == nil {
		return nil
	}
	return p.Embedded.Refunds
}

// PSPOrder represents an order on the PSP side. One order accumulates all
// payment attempts made against it, including failed retries.
type PSPOrder struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Amount   PSPAmount      `json:"amount"`
	Embedded *OrderEmbedded `json:"_embedded,omitempty"`
}

type OrderEmbedded struct {
	Payments []PSPPayment `json:"payments,omitempty"`
}

// Payments returns the payment attempts embedded in the order.
func (o *PSPOrder) Payments() []PSPPayment {
	if o.Embedded == nil {
		return nil
	}
	return o.Embedded.Payments
}

// PSPRefund has its own lifecycle independent of the payment it refunds.
type PSPRefund struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Amount    PSPAmount `json:"amount"`
	PaymentID string    `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
