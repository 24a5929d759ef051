package storage

import (
	"payment-reconciler/internal/models"
)

// Store persists the reconciliation audit trail.
type Store interface {
	SaveRecord(record *models.ReconciliationRecord) error
	GetRecord(recordID string) (*models.ReconciliationRecord, error)
	ListRecordsByResource(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error)
}
