package notify

import (
	"context"
	"sync/atomic"

	"plantwatch/internal/logger"
	"plantwatch/internal/models"
)

// SimulatedGateway logs would-be messages instead of sending them.
// Selected at startup when the channel has no configured credentials.
type SimulatedGateway struct {
	channel models.Channel
	sent    atomic.Uint64
}

// NewSimulatedGateway creates a simulated gateway for channel
func NewSimulatedGateway(channel models.Channel) *SimulatedGateway {
	return &SimulatedGateway{channel: channel}
}

// Send logs the message and performs no network call
func (g *SimulatedGateway) Send(_ context.Context, destination, body string) error {
	g.sent.Add(1)
	log := logger.WithComponent("simulated_gateway")
	log.Info().
		Str("channel", string(g.channel)).
		Str("destination", destination).
		Str("body", body).
		Msg("simulated delivery")
	return nil
}

// Live always returns false for the simulated gateway
func (g *SimulatedGateway) Live() bool { return false }

// Sent returns how many messages were simulated
func (g *SimulatedGateway) Sent() uint64 { return g.sent.Load() }
