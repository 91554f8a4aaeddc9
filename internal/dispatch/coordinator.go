// Package dispatch fans one alert out to all resolved recipients across
// all applicable channels and aggregates per-recipient outcomes.
package dispatch

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
	"plantwatch/internal/resolve"
)

const defaultConcurrency = 10

// Sender performs one delivery attempt. Satisfied by notify.Dispatcher.
type Sender interface {
	Dispatch(ctx context.Context, v models.Violation, r models.Recipient, ch models.Channel, body string) models.DispatchAttempt
}

// Content carries the message text per channel, with a default for
// channels without an override.
type Content struct {
	Default    string
	PerChannel map[models.Channel]string
}

// For returns the body to send on ch
func (c Content) For(ch models.Channel) string {
	if body, ok := c.PerChannel[ch]; ok && body != "" {
		return body
	}
	return c.Default
}

// Coordinator is the unit of work the scheduler measures: one violation
// fanned out to every (recipient, channel) pair.
type Coordinator struct {
	sender      Sender
	retry       RetryPolicy
	concurrency int

	// Totals across all fan-outs, for the stats endpoint
	attempted atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	simulated atomic.Uint64
}

// Config holds coordinator configuration
type Config struct {
	Sender      Sender
	Retry       RetryPolicy
	Concurrency int
}

// NewCoordinator creates a Coordinator
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Retry == nil {
		cfg.Retry = NoRetry()
	}
	return &Coordinator{
		sender:      cfg.Sender,
		retry:       cfg.Retry,
		concurrency: cfg.Concurrency,
	}
}

// FanOut issues one delivery per (recipient, channel) pair and waits
// for all outcomes. Pairs are independent: one recipient's failure
// never blocks or cancels another's delivery.
func (c *Coordinator) FanOut(ctx context.Context, v models.Violation, targets []resolve.Target, content Content) ([]models.DispatchAttempt, models.DispatchSummary) {
	type pair struct {
		recipient models.Recipient
		channel   models.Channel
	}

	var pairs []pair
	for _, t := range targets {
		for _, ch := range t.Channels {
			pairs = append(pairs, pair{recipient: t.Recipient, channel: ch})
		}
	}
	if len(pairs) == 0 {
		return nil, models.DispatchSummary{}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		attempts = make([]models.DispatchAttempt, 0, len(pairs))
		sem      = make(chan struct{}, c.concurrency)
	)

	for _, p := range pairs {
		wg.Add(1)
		sem <- struct{}{}
		go func(p pair) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					log := logger.WithComponent("coordinator")
					log.Error().
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("dispatch panic recovered")
					metrics.PanicsRecovered.WithLabelValues("coordinator").Inc()
				}
			}()

			attempt := c.send(ctx, v, p.recipient, p.channel, content.For(p.channel))

			mu.Lock()
			attempts = append(attempts, attempt)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	// Stable order for logs and tests.
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].RecipientID != attempts[j].RecipientID {
			return attempts[i].RecipientID < attempts[j].RecipientID
		}
		return attempts[i].Channel < attempts[j].Channel
	})

	var summary models.DispatchSummary
	for _, a := range attempts {
		summary.Add(a.Outcome)
		c.count(a.Outcome)
	}

	log := logger.WithComponent("coordinator")
	log.Info().
		Str("violation_id", v.ID).
		Str("severity", string(v.Severity)).
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("simulated", summary.Simulated).
		Msg("fan-out complete")

	return attempts, summary
}

// send runs one attempt through the retry policy. A retried failure
// updates the same attempt record rather than producing a new one.
func (c *Coordinator) send(ctx context.Context, v models.Violation, r models.Recipient, ch models.Channel, body string) models.DispatchAttempt {
	attempt := c.sender.Dispatch(ctx, v, r, ch, body)

	for n := 1; attempt.Outcome == models.OutcomeFailed && n <= c.retry.Retries(); n++ {
		select {
		case <-time.After(c.retry.Backoff(n)):
		case <-ctx.Done():
			return attempt
		}
		attempt = c.sender.Dispatch(ctx, v, r, ch, body)
	}
	return attempt
}

func (c *Coordinator) count(o models.Outcome) {
	c.attempted.Add(1)
	switch o {
	case models.OutcomeSuccess:
		c.succeeded.Add(1)
	case models.OutcomeSimulated:
		c.simulated.Add(1)
	default:
		c.failed.Add(1)
	}
}

// Stats holds coordinator totals
type Stats struct {
	Attempted uint64 `json:"attempted"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Simulated uint64 `json:"simulated"`
}

// Stats returns totals across all fan-outs
func (c *Coordinator) Stats() Stats {
	return Stats{
		Attempted: c.attempted.Load(),
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Simulated: c.simulated.Load(),
	}
}
