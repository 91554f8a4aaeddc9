package store

import (
	"context"
	"errors"

	"plantwatch/internal/models"
)

// Store errors
var (
	// ErrNoSnapshot means the domain has no telemetry yet; a cycle
	// treats this as a quiet skip, not a failure.
	ErrNoSnapshot = errors.New("no snapshot for domain")
)

// TelemetryStore persists timestamped parameter snapshots per domain.
// The engine only reads the most recent snapshot and writes back
// violation annotations.
type TelemetryStore interface {
	// GetLatestSnapshot returns the newest snapshot for domain with its
	// already-raised violations attached.
	GetLatestSnapshot(ctx context.Context, domain models.Domain) (*models.Snapshot, error)

	// AppendViolations annotates a snapshot with newly raised
	// violations. Appending a violation for a (snapshot, parameter)
	// pair that is already annotated is a no-op for that pair.
	AppendViolations(ctx context.Context, snapshotID string, violations []models.Violation) error

	// Ping checks store connectivity.
	Ping(ctx context.Context) error

	Close() error
}
