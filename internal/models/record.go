package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Reconciliation outcomes stored in the audit log.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// ReconciliationRecord is the persisted audit trail of one processed
// notification: which resource, which flow, what was applied and how it ended.
type ReconciliationRecord struct {
	bun.BaseModel `bun:"table:reconciliations"`

	RecordID       string    `json:"record_id" bun:"record_id,pk"`
	ResourceID     string    `json:"resource_id" bun:"resource_id"`
	Flow           string    `json:"flow" bun:"flow"`
	Outcome        string    `json:"outcome" bun:"outcome"`
	ActionCount    int       `json:"action_count" bun:"action_count"`
	AppliedVersion int       `json:"applied_version" bun:"applied_version"`
	Error          string    `json:"error,omitempty" bun:"error"`
	CreatedAt      time.Time `json:"created_at" bun:"created_at"`
}
