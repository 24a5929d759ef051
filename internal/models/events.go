package models

import (
	"time"
)

// Reconciliation outcome event types published to Kafka.
const (
	EventReconciliationCompleted = "reconciliation.completed"
	EventReconciliationFailed    = "reconciliation.failed"
	EventReconciliationSkipped   = "reconciliation.skipped"
)

// ReconciliationEvent is published after every processed notification so that
// downstream consumers can observe sync outcomes.
type ReconciliationEvent struct {
	Type        string    `json:"type"`
	ResourceID  string    `json:"resource_id"`
	Flow        string    `json:"flow"`
	ActionCount int       `json:"action_count"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NotificationMessage is the shape of PSP notifications arriving over the
// Kafka entry path. Carries the same resource id a webhook call would.
type NotificationMessage struct {
	ResourceID string    `json:"resource_id"`
	ReceivedAt time.Time `json:"received_at"`
}
