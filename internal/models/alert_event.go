package models

import (
	"time"
)

// AlertEvent wraps a raised violation with its dispatch summary for
// downstream consumers on the event stream
type AlertEvent struct {
	// Raised violation
	Violation Violation `json:"violation"`

	// Delivery accounting for this violation
	Summary DispatchSummary `json:"summary"`

	// Internal metadata
	EmittedAt    time.Time `json:"emitted_at"`
	EngineNode   string    `json:"engine_node"`
	CycleID      string    `json:"cycle_id"`
	PartitionKey string    `json:"partition_key"`
}

// NewAlertEvent creates an event for a violation raised on engineNode
func NewAlertEvent(v Violation, summary DispatchSummary, cycleID, engineNode string) *AlertEvent {
	return &AlertEvent{
		Violation:    v,
		Summary:      summary,
		EmittedAt:    time.Now().UTC(),
		EngineNode:   engineNode,
		CycleID:      cycleID,
		PartitionKey: string(v.Domain), // partition by domain for ordering
	}
}
