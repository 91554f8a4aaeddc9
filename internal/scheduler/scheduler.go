// Package scheduler drives one evaluation and dispatch cycle per domain
// on a fixed interval. A domain never has two cycles in flight: a tick
// that fires while the previous cycle is still running is skipped.
package scheduler

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"plantwatch/internal/classify"
	"plantwatch/internal/config"
	"plantwatch/internal/directory"
	"plantwatch/internal/dispatch"
	"plantwatch/internal/evaluate"
	"plantwatch/internal/logger"
	"plantwatch/internal/metrics"
	"plantwatch/internal/models"
	"plantwatch/internal/predict"
	"plantwatch/internal/resolve"
	"plantwatch/internal/store"
)

// ResultSink mirrors cycle results and alert events for downstream
// consumers. Satisfied by store.ResultCache.
type ResultSink interface {
	StoreCycleResult(ctx context.Context, res *models.CycleResult) error
	PublishAlert(ctx context.Context, event *models.AlertEvent) error
}

// EventPublisher pushes alert events to the event stream. Satisfied by
// publish.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.AlertEvent) error
}

// domainState is the per-domain Idle/Running flag. Running is entered
// by compare-and-swap, so overlapping ticks observe it and skip.
type domainState struct {
	running atomic.Bool
}

// Config holds scheduler configuration
type Config struct {
	Interval    time.Duration
	Domains     []models.Domain
	Store       store.TelemetryStore
	Directory   directory.RecipientDirectory
	Classifier  *classify.Classifier
	Coordinator *dispatch.Coordinator
	Advisor     *predict.Advisor
	Rules       func() *config.RuleSet
	Node        string

	// Optional sinks; nil disables them
	Sink      ResultSink
	Publisher EventPublisher
}

// Scheduler owns the per-domain cycle state machines
type Scheduler struct {
	cfg    Config
	states map[models.Domain]*domainState
	wg     sync.WaitGroup

	// Metrics
	cyclesRun     atomic.Uint64
	cyclesSkipped atomic.Uint64
	cyclesFailed  atomic.Uint64
}

// New creates a Scheduler
func New(cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if len(cfg.Domains) == 0 {
		cfg.Domains = models.AllDomains()
	}

	states := make(map[models.Domain]*domainState, len(cfg.Domains))
	for _, d := range cfg.Domains {
		states[d] = &domainState{}
	}
	return &Scheduler{cfg: cfg, states: states}
}

// Start runs the shared ticker until ctx is cancelled, then waits for
// in-flight cycles to finish.
func (s *Scheduler) Start(ctx context.Context) {
	log := logger.WithComponent("scheduler")
	log.Info().
		Dur("interval", s.cfg.Interval).
		Int("domains", len(s.cfg.Domains)).
		Msg("scheduler started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopping, waiting for in-flight cycles")
			s.wg.Wait()
			log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick attempts one cycle for every domain. Domains still running from
// a previous tick are skipped entirely.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, domain := range s.cfg.Domains {
		state := s.states[domain]
		if !state.running.CompareAndSwap(false, true) {
			s.cyclesSkipped.Add(1)
			metrics.CyclesTotal.WithLabelValues(string(domain), "skipped").Inc()
			dlog := logger.WithDomain(string(domain))
			dlog.Debug().Msg("previous cycle still running, tick skipped")
			continue
		}

		s.wg.Add(1)
		go func(domain models.Domain, state *domainState) {
			defer s.wg.Done()
			defer state.running.Store(false)
			s.runDomain(ctx, domain)
		}(domain, state)
	}
}

// runDomain executes one cycle and never lets a failure escape: a bad
// cycle is logged and the state returns to idle for the next tick.
func (s *Scheduler) runDomain(ctx context.Context, domain models.Domain) {
	log := logger.WithDomain(string(domain))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("cycle panic recovered")
			metrics.PanicsRecovered.WithLabelValues("scheduler").Inc()
			s.cyclesFailed.Add(1)
			metrics.CyclesTotal.WithLabelValues(string(domain), "failed").Inc()
		}
	}()

	result, err := s.runCycle(ctx, domain)
	duration := time.Since(start)
	metrics.CycleDuration.WithLabelValues(string(domain)).Observe(duration.Seconds())

	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		// No telemetry yet; nothing to evaluate.
		metrics.CyclesTotal.WithLabelValues(string(domain), "ok").Inc()
		log.Debug().Msg("no snapshot for domain, cycle skipped")
	case err != nil:
		s.cyclesFailed.Add(1)
		metrics.CyclesTotal.WithLabelValues(string(domain), "failed").Inc()
		log.Error().Err(err).Dur("duration", duration).Msg("cycle failed")
	default:
		s.cyclesRun.Add(1)
		metrics.CyclesTotal.WithLabelValues(string(domain), "ok").Inc()
		s.emit(ctx, result, duration)
	}
}

// runCycle is the full sequence for one domain: fetch snapshot,
// evaluate, classify and persist, then fan each new violation out.
func (s *Scheduler) runCycle(ctx context.Context, domain models.Domain) (*models.CycleResult, error) {
	result := &models.CycleResult{
		CycleID:   uuid.NewString(),
		Domain:    domain,
		StartedAt: time.Now().UTC(),
	}

	snap, err := s.cfg.Store.GetLatestSnapshot(ctx, domain)
	if err != nil {
		return nil, err
	}

	breaches := evaluate.Evaluate(snap, s.cfg.Rules())

	violations, err := s.cfg.Classifier.Classify(ctx, snap, breaches)
	if err != nil {
		return nil, err
	}
	result.Violations = violations

	if len(violations) == 0 {
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}

	recipients, err := s.cfg.Directory.ListActiveRecipients(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range violations {
		targets := resolve.Resolve(recipients, v.Severity)
		content := s.compose(ctx, v)

		attempts, summary := s.cfg.Coordinator.FanOut(ctx, v, targets, content)
		result.Attempts = append(result.Attempts, attempts...)
		result.Summary.Merge(summary)

		s.emitAlert(ctx, v, summary, result.CycleID)
	}

	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// compose builds the per-channel message text. Critical chat messages
// carry one advisory line; SMS stays short.
func (s *Scheduler) compose(ctx context.Context, v models.Violation) dispatch.Content {
	content := dispatch.Content{Default: v.Message}
	if v.Severity == models.SeverityCritical && s.cfg.Advisor != nil {
		advice := s.cfg.Advisor.Advice(ctx, v)
		content.PerChannel = map[models.Channel]string{
			models.ChannelChat: v.Message + "\nRecommended action: " + advice,
		}
	}
	return content
}

// emit pushes the finished cycle result to the observability boundary
func (s *Scheduler) emit(ctx context.Context, result *models.CycleResult, duration time.Duration) {
	log := logger.WithComponent("scheduler")
	log.Info().
		Str("cycle_id", result.CycleID).
		Str("domain", string(result.Domain)).
		Time("started_at", result.StartedAt).
		Dur("duration", duration).
		Int("violations", len(result.Violations)).
		Int("attempted", result.Summary.Attempted).
		Int("succeeded", result.Summary.Succeeded).
		Int("failed", result.Summary.Failed).
		Int("simulated", result.Summary.Simulated).
		Msg("cycle complete")

	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.StoreCycleResult(ctx, result); err != nil {
			dlog := logger.WithDomain(string(result.Domain))
			dlog.Warn().Err(err).Msg("cycle result mirror failed")
		}
	}
}

// emitAlert publishes one violation's alert event to the optional sinks
func (s *Scheduler) emitAlert(ctx context.Context, v models.Violation, summary models.DispatchSummary, cycleID string) {
	event := models.NewAlertEvent(v, summary, cycleID, s.cfg.Node)

	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.PublishAlert(ctx, event); err != nil {
			dlog := logger.WithDomain(string(v.Domain))
			dlog.Warn().Err(err).Msg("alert pub/sub publish failed")
		}
	}
	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, event); err != nil {
			dlog := logger.WithDomain(string(v.Domain))
			dlog.Warn().Err(err).Msg("alert event stream publish failed")
		}
	}
}

// Stats holds scheduler counters
type Stats struct {
	CyclesRun     uint64 `json:"cycles_run"`
	CyclesSkipped uint64 `json:"cycles_skipped"`
	CyclesFailed  uint64 `json:"cycles_failed"`
}

// Stats returns scheduler counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		CyclesRun:     s.cyclesRun.Load(),
		CyclesSkipped: s.cyclesSkipped.Load(),
		CyclesFailed:  s.cyclesFailed.Load(),
	}
}
