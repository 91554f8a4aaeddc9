// Package directory provides read-only access to the personnel records
// that alerts are routed to.
package directory

import (
	"context"

	"plantwatch/internal/models"
)

// RecipientDirectory lists the active personnel set. The full set is
// re-read every cycle; staleness within one cycle is acceptable.
type RecipientDirectory interface {
	ListActiveRecipients(ctx context.Context) ([]models.Recipient, error)
	Close() error
}
