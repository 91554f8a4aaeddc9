package models

import "time"

// Outcome is the terminal result of one delivery attempt
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeSimulated Outcome = "simulated"
)

// DispatchAttempt is one (violation, recipient, channel) delivery try.
// Attempts are terminal immediately; retries produce a new outcome on
// the same attempt record, not a new record.
type DispatchAttempt struct {
	ID          string    `json:"id"`
	ViolationID string    `json:"violation_id"`
	RecipientID string    `json:"recipient_id"`
	Channel     Channel   `json:"channel"`
	Outcome     Outcome   `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// DispatchSummary aggregates attempt outcomes. Invariant:
// Attempted == Succeeded + Failed + Simulated.
type DispatchSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Simulated int `json:"simulated"`
}

// Add records one outcome in the summary
func (s *DispatchSummary) Add(o Outcome) {
	s.Attempted++
	switch o {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeSimulated:
		s.Simulated++
	default:
		s.Failed++
	}
}

// Merge folds other into s
func (s *DispatchSummary) Merge(other DispatchSummary) {
	s.Attempted += other.Attempted
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Simulated += other.Simulated
}

// Consistent reports whether the counts satisfy the summary invariant
func (s DispatchSummary) Consistent() bool {
	return s.Attempted == s.Succeeded+s.Failed+s.Simulated
}

// CycleResult aggregates everything that happened in one evaluation and
// dispatch cycle of one domain. It is emitted to the observability
// boundary and then discarded; only the violation annotations on the
// snapshot outlive the cycle.
type CycleResult struct {
	CycleID    string            `json:"cycle_id"`
	Domain     Domain            `json:"domain"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Violations []Violation       `json:"violations,omitempty"`
	Attempts   []DispatchAttempt `json:"attempts,omitempty"`
	Summary    DispatchSummary   `json:"summary"`
}
