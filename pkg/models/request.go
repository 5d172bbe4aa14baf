// Package models defines the core domain models for relief-request workflow orchestration.
package models

import "time"

// RequestPriority represents the urgency of a relief request.
type RequestPriority string

const (
	RequestPriorityLow      RequestPriority = "low"
	RequestPriorityMedium   RequestPriority = "medium"
	RequestPriorityHigh     RequestPriority = "high"
	RequestPriorityCritical RequestPriority = "critical"
)

// ReliefRequest is the originating request a workflow execution is tied to.
// The engine treats it as read-only; its lifecycle is owned by the
// surrounding application.
type ReliefRequest struct {
	ID          string          `json:"id"            validate:"required"`
	Type        string          `json:"type"          validate:"required"` // e.g. FOOD, SHELTER, MEDICAL
	Priority    RequestPriority `json:"priority"`
	Location    string          `json:"location"`
	RequesterID string          `json:"requester_id"`
	Details     map[string]any  `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
