// Package notify wraps the external delivery gateways. Absence of
// gateway credentials is a normal condition: the simulated gateway logs
// would-be messages so the rest of the pipeline can run without live
// credentials.
package notify

import (
	"context"
)

// DeliveryGateway sends one text payload to one destination address.
// Implementations are selected once at startup by configuration
// presence, never inside dispatch logic.
type DeliveryGateway interface {
	// Send performs exactly one outbound call (or none, if simulated).
	Send(ctx context.Context, destination, body string) error

	// Live reports whether sends reach a real gateway. Simulated
	// gateways return false and their outcomes are recorded as such.
	Live() bool
}
