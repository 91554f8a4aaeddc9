// Package classify turns evaluator breaches into raised violations.
// Raising is idempotent per (snapshot, parameter) and is persisted
// before any dispatch starts, so a dispatch failure or a mid-cycle
// restart never causes a duplicate alert on the next tick.
package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plantwatch/internal/evaluate"
	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
	"plantwatch/internal/store"
)

// Classifier filters already-raised breaches and annotates snapshots
type Classifier struct {
	store store.TelemetryStore
}

// New creates a Classifier persisting through ts
func New(ts store.TelemetryStore) *Classifier {
	return &Classifier{store: ts}
}

// Classify returns only the breaches that are new for snap, as
// violations with composed messages. The new violations are appended to
// the snapshot's annotation list and persisted before returning.
func (c *Classifier) Classify(ctx context.Context, snap *models.Snapshot, breaches []evaluate.Breach) ([]models.Violation, error) {
	log := logger.WithComponent("classifier")

	var fresh []models.Violation
	for _, b := range breaches {
		if snap.HasViolation(b.Parameter.Name) {
			continue
		}
		v := models.Violation{
			ID:         uuid.NewString(),
			SnapshotID: snap.ID,
			Domain:     snap.Domain,
			Parameter:  b.Parameter.Name,
			Value:      b.Parameter.Value,
			Threshold:  b.Parameter.Threshold,
			Unit:       b.Parameter.Unit,
			Severity:   b.Severity,
			Message:    ComposeMessage(snap.Domain, b),
			RaisedAt:   time.Now().UTC(),
		}
		fresh = append(fresh, v)
	}

	if len(fresh) == 0 {
		return nil, nil
	}

	// Persist before dispatch: at-most-once raising survives a failure
	// later in the cycle.
	if err := c.store.AppendViolations(ctx, snap.ID, fresh); err != nil {
		return nil, fmt.Errorf("persist violations for snapshot %s: %w", snap.ID, err)
	}
	snap.Violations = append(snap.Violations, fresh...)

	for _, v := range fresh {
		metrics.ViolationsRaised.WithLabelValues(string(v.Domain), string(v.Severity)).Inc()
		log.Warn().
			Str("domain", string(v.Domain)).
			Str("parameter", v.Parameter).
			Float64("value", v.Value).
			Float64("threshold", v.Threshold).
			Str("severity", string(v.Severity)).
			Msg("violation raised")
	}
	return fresh, nil
}

// ComposeMessage renders the human-readable alert text for a breach
func ComposeMessage(domain models.Domain, b evaluate.Breach) string {
	p := b.Parameter
	direction := "exceeds limit"
	if p.Bound == models.BoundLower {
		direction = "below minimum"
	}
	return fmt.Sprintf("[%s] %s: %s at %.1f %s %s %.1f %s",
		b.Severity, domain, p.Name, p.Value, p.Unit, direction, p.Threshold, p.Unit)
}
