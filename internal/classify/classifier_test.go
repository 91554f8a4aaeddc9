package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"plantwatch/internal/config"
	"plantwatch/internal/evaluate"
	"plantwatch/internal/models"
	"plantwatch/internal/store"
)

func equipmentSnapshot(id string) *models.Snapshot {
	return evaluate.EquipmentReading{
		TemperatureC:  600,
		PressureBar:   150,
		VibrationMmS:  3,
		EfficiencyPct: 90,
	}.Snapshot(id, time.Now(), config.DefaultRules())
}

func TestClassify_RaisesNewViolation(t *testing.T) {
	ms := store.NewMemoryStore()
	snap := equipmentSnapshot("snap-1")
	ms.Put(snap)

	c := New(ms)
	breaches := evaluate.Evaluate(snap, config.DefaultRules())

	fresh, err := c.Classify(context.Background(), snap, breaches)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if len(fresh) != 1 {
		t.Fatalf("expected 1 new violation, got %d", len(fresh))
	}

	v := fresh[0]
	if v.Parameter != "temperature" || v.Severity != models.SeverityWarning {
		t.Errorf("unexpected violation: %+v", v)
	}
	if v.ID == "" || v.SnapshotID != "snap-1" {
		t.Errorf("violation identity not set: %+v", v)
	}
	if !strings.Contains(v.Message, "temperature") || !strings.Contains(v.Message, "600.0") {
		t.Errorf("message missing details: %q", v.Message)
	}

	// Persisted before dispatch: the store already has the annotation.
	stored, err := ms.GetLatestSnapshot(context.Background(), models.DomainEquipment)
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if !stored.HasViolation("temperature") {
		t.Error("violation not persisted to store")
	}
}

func TestClassify_IdempotentAcrossReevaluations(t *testing.T) {
	ms := store.NewMemoryStore()
	snap := equipmentSnapshot("snap-1")
	ms.Put(snap)

	c := New(ms)
	rules := config.DefaultRules()

	first, err := c.Classify(context.Background(), snap, evaluate.Evaluate(snap, rules))
	if err != nil {
		t.Fatalf("first Classify: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 violation on first pass, got %d", len(first))
	}

	// Re-read and re-evaluate the same snapshot without new data.
	again, err := ms.GetLatestSnapshot(context.Background(), models.DomainEquipment)
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	second, err := c.Classify(context.Background(), again, evaluate.Evaluate(again, rules))
	if err != nil {
		t.Fatalf("second Classify: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("expected no duplicate violations, got %d", len(second))
	}

	stored, _ := ms.GetLatestSnapshot(context.Background(), models.DomainEquipment)
	if len(stored.Violations) != 1 {
		t.Errorf("expected exactly 1 stored violation, got %d", len(stored.Violations))
	}
}

type failingStore struct {
	*store.MemoryStore
}

func (f *failingStore) AppendViolations(context.Context, string, []models.Violation) error {
	return errors.New("store unavailable")
}

func TestClassify_PersistFailureSurfaces(t *testing.T) {
	ms := store.NewMemoryStore()
	snap := equipmentSnapshot("snap-1")
	ms.Put(snap)

	c := New(&failingStore{MemoryStore: ms})
	breaches := evaluate.Evaluate(snap, config.DefaultRules())

	if _, err := c.Classify(context.Background(), snap, breaches); err == nil {
		t.Fatal("expected error when persistence fails")
	}
	// Nothing was annotated: the next cycle may re-raise.
	if snap.HasViolation("temperature") {
		t.Error("snapshot annotated despite persistence failure")
	}
}

func TestClassify_NoBreaches(t *testing.T) {
	ms := store.NewMemoryStore()
	snap := equipmentSnapshot("snap-1")
	ms.Put(snap)

	fresh, err := New(ms).Classify(context.Background(), snap, nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if fresh != nil {
		t.Errorf("expected nil violations for no breaches, got %v", fresh)
	}
}
