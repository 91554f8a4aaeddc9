package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRules_Valid(t *testing.T) {
	rules := DefaultRules()
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}

	if got := rules.MultiplierFor("emission"); got != DefaultMultiplier {
		t.Errorf("emission multiplier = %v, want %v", got, DefaultMultiplier)
	}

	threshold, ok := rules.ThresholdFor("equipment", "temperature")
	if !ok || threshold != 550 {
		t.Errorf("equipment temperature threshold = %v (%v), want 550", threshold, ok)
	}

	if _, ok := rules.ThresholdFor("equipment", "unknown"); ok {
		t.Error("unknown parameter should have no threshold")
	}
	if _, ok := rules.ThresholdFor("unknown", "temperature"); ok {
		t.Error("unknown domain should have no threshold")
	}
}

func TestLoadRules_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte(`
multiplier: 1.5
domains:
  emission:
    multiplier: 1.3
    thresholds:
      sox: 180
  equipment:
    thresholds:
      temperature: 540
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	if got := rules.MultiplierFor("emission"); got != 1.3 {
		t.Errorf("emission multiplier = %v, want domain override 1.3", got)
	}
	if got := rules.MultiplierFor("load"); got != 1.5 {
		t.Errorf("load multiplier = %v, want global override 1.5", got)
	}

	if threshold, _ := rules.ThresholdFor("emission", "sox"); threshold != 180 {
		t.Errorf("sox threshold = %v, want override 180", threshold)
	}
	// Untouched parameters keep their defaults.
	if threshold, _ := rules.ThresholdFor("emission", "nox"); threshold != 300 {
		t.Errorf("nox threshold = %v, want default 300", threshold)
	}
	if threshold, _ := rules.ThresholdFor("equipment", "temperature"); threshold != 540 {
		t.Errorf("temperature threshold = %v, want override 540", threshold)
	}
}

func TestLoadRules_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("multiplier: 0.9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(bad); err == nil {
		t.Error("expected error for multiplier <= 1")
	}

	garbage := filepath.Join(dir, "garbage.yaml")
	if err := os.WriteFile(garbage, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(garbage); err == nil {
		t.Error("expected error for malformed yaml")
	}

	if _, err := LoadRules(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRuleSet_Validate(t *testing.T) {
	rules := DefaultRules()
	rules.Domains["emission"] = DomainRules{Thresholds: map[string]float64{"sox": -1}}
	if err := rules.Validate(); err == nil {
		t.Error("expected error for non-positive threshold")
	}
}
