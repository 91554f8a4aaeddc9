package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher sends one message to one recipient over one channel. It
// never returns an error to the caller: every outcome is recorded on
// the returned attempt.
type Dispatcher struct {
	gateways map[models.Channel]DeliveryGateway
	timeout  time.Duration
}

// NewDispatcher creates a Dispatcher over the startup-selected gateways
func NewDispatcher(gateways map[models.Channel]DeliveryGateway, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{gateways: gateways, timeout: timeout}
}

// Dispatch delivers body for violation v to recipient r on ch
func (d *Dispatcher) Dispatch(ctx context.Context, v models.Violation, r models.Recipient, ch models.Channel, body string) models.DispatchAttempt {
	log := logger.WithComponent("dispatcher")
	start := time.Now()

	attempt := models.DispatchAttempt{
		ID:          uuid.NewString(),
		ViolationID: v.ID,
		RecipientID: r.ID,
		Channel:     ch,
		SentAt:      start.UTC(),
	}

	gw, ok := d.gateways[ch]
	if !ok {
		attempt.Outcome = models.OutcomeFailed
		attempt.Reason = "no gateway for channel"
		d.record(attempt, time.Since(start))
		return attempt
	}

	destination := r.Address(ch)
	if destination == "" {
		attempt.Outcome = models.OutcomeFailed
		attempt.Reason = "recipient has no address for channel"
		d.record(attempt, time.Since(start))
		return attempt
	}

	// Per-send timeout so one hung recipient cannot stall the fan-out.
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := gw.Send(sendCtx, destination, body)
	switch {
	case !gw.Live():
		attempt.Outcome = models.OutcomeSimulated
	case err != nil:
		attempt.Outcome = models.OutcomeFailed
		attempt.Reason = err.Error()
		log.Warn().
			Err(err).
			Str("channel", string(ch)).
			Str("recipient_id", r.ID).
			Str("violation_id", v.ID).
			Msg("delivery failed")
	default:
		attempt.Outcome = models.OutcomeSuccess
	}

	d.record(attempt, time.Since(start))
	return attempt
}

func (d *Dispatcher) record(attempt models.DispatchAttempt, duration time.Duration) {
	metrics.DispatchAttemptsTotal.WithLabelValues(string(attempt.Channel), string(attempt.Outcome)).Inc()
	metrics.DispatchDuration.WithLabelValues(string(attempt.Channel)).Observe(duration.Seconds())
}
