package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchRules_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("multiplier: 1.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *RuleSet, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WatchRules(ctx, path, func(r *RuleSet) { reloaded <- r })
	}()

	// Give the watcher time to register before the first write.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("multiplier: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case rules := <-reloaded:
		if rules.Multiplier != 1.5 {
			t.Errorf("reloaded multiplier = %v, want 1.5", rules.Multiplier)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rules reload")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

func TestWatchRules_KeepsPreviousOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("multiplier: 1.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *RuleSet, 4)
	go func() {
		_ = WatchRules(ctx, path, func(r *RuleSet) { reloaded <- r })
	}()
	time.Sleep(100 * time.Millisecond)

	// Invalid multiplier must not trigger onChange.
	if err := os.WriteFile(path, []byte("multiplier: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A following valid write still comes through.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("multiplier: 1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case rules := <-reloaded:
		if rules.Multiplier != 1.4 {
			t.Errorf("reloaded multiplier = %v, want 1.4 from the valid write", rules.Multiplier)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rules reload")
	}
}

func TestWatchRules_MissingFile(t *testing.T) {
	err := WatchRules(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), func(*RuleSet) {})
	if err == nil {
		t.Error("expected error watching a missing file")
	}
}
