package reconcile

import (
	"payment-reconciler/internal/models"
)

// FindMatch locates the backend transaction tracking the given PSP record id.
// Transaction lists are bounded by payment retries, so a linear scan is fine.
func FindMatch(interactionID string, transactions []models.Transaction) (*models.Transaction, bool) {
	for i := range transactions {
		if transactions[i].InteractionID == interactionID {
			return &transactions[i], true
		}
	}
	return nil, false
}
