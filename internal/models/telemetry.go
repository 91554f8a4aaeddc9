package models

import (
	"errors"
	"time"
)

// Domain identifies one monitored plant subsystem
type Domain string

const (
	DomainEmission   Domain = "emission"
	DomainEquipment  Domain = "equipment"
	DomainLoad       Domain = "load"
	DomainAshStorage Domain = "ash_storage"
)

// AllDomains returns every monitored domain in evaluation order
func AllDomains() []Domain {
	return []Domain{DomainEmission, DomainEquipment, DomainLoad, DomainAshStorage}
}

// IsValid checks if the domain tag is known
func (d Domain) IsValid() bool {
	switch d {
	case DomainEmission, DomainEquipment, DomainLoad, DomainAshStorage:
		return true
	default:
		return false
	}
}

// Bound states which direction of a threshold is the unsafe one
type Bound string

const (
	// BoundUpper parameters breach when the value exceeds the threshold
	BoundUpper Bound = "upper"
	// BoundLower parameters breach when the value drops below the threshold
	BoundLower Bound = "lower"
)

// Parameter is one named telemetry reading with its configured limit
type Parameter struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Threshold float64 `json:"threshold"`
	Bound     Bound   `json:"bound"`
}

// Snapshot is one domain's most recent telemetry reading together with
// the violations already raised against it
type Snapshot struct {
	ID         string      `json:"id"`
	Domain     Domain      `json:"domain"`
	Parameters []Parameter `json:"parameters"`
	CapturedAt time.Time   `json:"captured_at"`

	// Violations already raised for this snapshot. Dedup key for
	// idempotent raising: (snapshot id, parameter name).
	Violations []Violation `json:"violations,omitempty"`
}

// Validation errors
var (
	ErrEmptySnapshotID = errors.New("snapshot ID cannot be empty")
	ErrInvalidDomain   = errors.New("invalid telemetry domain")
	ErrZeroCapturedAt  = errors.New("captured_at cannot be zero")
	ErrNoParameters    = errors.New("snapshot has no parameters")
	ErrInvalidSeverity = errors.New("invalid severity level")
)

// Validate checks if the Snapshot has all required fields
func (s *Snapshot) Validate() error {
	if s.ID == "" {
		return ErrEmptySnapshotID
	}
	if !s.Domain.IsValid() {
		return ErrInvalidDomain
	}
	if s.CapturedAt.IsZero() {
		return ErrZeroCapturedAt
	}
	if len(s.Parameters) == 0 {
		return ErrNoParameters
	}
	return nil
}

// HasViolation reports whether a violation for param is already raised
// on this snapshot
func (s *Snapshot) HasViolation(param string) bool {
	for _, v := range s.Violations {
		if v.Parameter == param {
			return true
		}
	}
	return false
}

// Severity classifies how far past its threshold a parameter is
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity level is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNormal, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}

// rank orders severities for comparison
func (s Severity) rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether s is equal to or more severe than other
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// Violation is a single parameter's threshold breach on a snapshot
type Violation struct {
	ID         string    `json:"id"`
	SnapshotID string    `json:"snapshot_id"`
	Domain     Domain    `json:"domain"`
	Parameter  string    `json:"parameter"`
	Value      float64   `json:"value"`
	Threshold  float64   `json:"threshold"`
	Unit       string    `json:"unit"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	RaisedAt   time.Time `json:"raised_at"`
}

// Validate checks if the Violation has all required fields
func (v *Violation) Validate() error {
	if v.ID == "" {
		return errors.New("violation ID cannot be empty")
	}
	if v.SnapshotID == "" {
		return ErrEmptySnapshotID
	}
	if !v.Domain.IsValid() {
		return ErrInvalidDomain
	}
	if v.Parameter == "" {
		return errors.New("violation parameter cannot be empty")
	}
	if !v.Severity.IsValid() || v.Severity == SeverityNormal {
		return ErrInvalidSeverity
	}
	return nil
}
