package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"plantwatch/internal/classify"
	"plantwatch/internal/config"
	"plantwatch/internal/directory"
	"plantwatch/internal/dispatch"
	"plantwatch/internal/evaluate"
	"plantwatch/internal/models"
	"plantwatch/internal/store"
)

type countingSender struct {
	calls atomic.Uint64
}

func (s *countingSender) Dispatch(_ context.Context, v models.Violation, r models.Recipient, ch models.Channel, _ string) models.DispatchAttempt {
	s.calls.Add(1)
	return models.DispatchAttempt{
		ID:          uuid.NewString(),
		ViolationID: v.ID,
		RecipientID: r.ID,
		Channel:     ch,
		Outcome:     models.OutcomeSuccess,
		SentAt:      time.Now().UTC(),
	}
}

func testRecipients() []models.Recipient {
	return []models.Recipient{
		{ID: "r-1", Name: "supervisor", Phone: "+1", ChatHandle: "@s", OptSMS: true, OptChat: true, Active: true},
	}
}

func newTestScheduler(ts store.TelemetryStore, sender dispatch.Sender) *Scheduler {
	rules := config.DefaultRules()
	return New(Config{
		Interval:    time.Hour, // ticks driven manually via Tick
		Domains:     []models.Domain{models.DomainEquipment},
		Store:       ts,
		Directory:   directory.NewStaticDirectory(testRecipients()),
		Classifier:  classify.New(ts),
		Coordinator: dispatch.NewCoordinator(dispatch.Config{Sender: sender}),
		Rules:       func() *config.RuleSet { return rules },
		Node:        "test-node",
	})
}

func breachedSnapshot(id string) *models.Snapshot {
	return evaluate.EquipmentReading{
		TemperatureC:  600, // warning
		PressureBar:   150,
		VibrationMmS:  3,
		EfficiencyPct: 90,
	}.Snapshot(id, time.Now(), config.DefaultRules())
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		idle := true
		for _, state := range s.states {
			if state.running.Load() {
				idle = false
				break
			}
		}
		if idle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("scheduler did not go idle in time")
}

func TestTick_RunsCycleAndDispatches(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Put(breachedSnapshot("snap-1"))
	sender := &countingSender{}

	s := newTestScheduler(ms, sender)
	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	// Warning routes to the single default channel.
	if sender.calls.Load() != 1 {
		t.Errorf("expected 1 dispatch, got %d", sender.calls.Load())
	}
	if got := s.Stats().CyclesRun; got != 1 {
		t.Errorf("cycles run = %d, want 1", got)
	}
}

func TestTick_NoDuplicateDispatchOnNextTick(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Put(breachedSnapshot("snap-1"))
	sender := &countingSender{}

	s := newTestScheduler(ms, sender)

	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	// Same snapshot, no new data: second tick must not re-raise or re-send.
	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	if sender.calls.Load() != 1 {
		t.Errorf("expected 1 total dispatch across ticks, got %d", sender.calls.Load())
	}
	if got := s.Stats().CyclesRun; got != 2 {
		t.Errorf("cycles run = %d, want 2", got)
	}
}

// blockingStore holds GetLatestSnapshot until released
type blockingStore struct {
	*store.MemoryStore
	release chan struct{}
	reads   atomic.Uint64
}

func (b *blockingStore) GetLatestSnapshot(ctx context.Context, domain models.Domain) (*models.Snapshot, error) {
	b.reads.Add(1)
	<-b.release
	return b.MemoryStore.GetLatestSnapshot(ctx, domain)
}

func TestTick_OverlappingTickSkipped(t *testing.T) {
	bs := &blockingStore{
		MemoryStore: store.NewMemoryStore(),
		release:     make(chan struct{}),
	}
	bs.Put(breachedSnapshot("snap-1"))
	sender := &countingSender{}

	s := newTestScheduler(bs, sender)

	s.Tick(context.Background())

	// Wait for the cycle to be stuck inside the snapshot read.
	deadline := time.Now().Add(time.Second)
	for bs.reads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	// Second tick while the first cycle is running: skipped entirely.
	s.Tick(context.Background())
	if got := s.Stats().CyclesSkipped; got != 1 {
		t.Errorf("cycles skipped = %d, want 1", got)
	}

	close(bs.release)
	waitIdle(t, s)
	s.wg.Wait()

	// The skipped tick performed no second snapshot read.
	if got := bs.reads.Load(); got != 1 {
		t.Errorf("snapshot reads = %d, want 1", got)
	}
	if sender.calls.Load() != 1 {
		t.Errorf("dispatches = %d, want 1", sender.calls.Load())
	}
}

// failingDirectory always errors
type failingDirectory struct{}

func (failingDirectory) ListActiveRecipients(context.Context) ([]models.Recipient, error) {
	return nil, context.DeadlineExceeded
}
func (failingDirectory) Close() error { return nil }

func TestTick_CycleFailureDoesNotWedgeScheduler(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.Put(breachedSnapshot("snap-1"))
	sender := &countingSender{}

	rules := config.DefaultRules()
	s := New(Config{
		Interval:    time.Hour,
		Domains:     []models.Domain{models.DomainEquipment},
		Store:       ms,
		Directory:   failingDirectory{},
		Classifier:  classify.New(ms),
		Coordinator: dispatch.NewCoordinator(dispatch.Config{Sender: sender}),
		Rules:       func() *config.RuleSet { return rules },
		Node:        "test-node",
	})

	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	if got := s.Stats().CyclesFailed; got != 1 {
		t.Errorf("cycles failed = %d, want 1", got)
	}

	// Next tick proceeds normally: the domain is idle again.
	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	if got := s.Stats().CyclesSkipped; got != 0 {
		t.Errorf("cycles skipped = %d, want 0 after failure", got)
	}
}

func TestTick_NoSnapshotIsQuietSkip(t *testing.T) {
	ms := store.NewMemoryStore() // empty
	sender := &countingSender{}

	s := newTestScheduler(ms, sender)
	s.Tick(context.Background())
	waitIdle(t, s)
	s.wg.Wait()

	stats := s.Stats()
	if stats.CyclesFailed != 0 {
		t.Errorf("cycles failed = %d, want 0 for missing snapshot", stats.CyclesFailed)
	}
	if sender.calls.Load() != 0 {
		t.Errorf("no dispatches expected, got %d", sender.calls.Load())
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	ms := store.NewMemoryStore()
	sender := &countingSender{}
	s := newTestScheduler(ms, sender)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
