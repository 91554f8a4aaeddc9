package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMultiplier is the factor past its threshold at which an
// upper-bound breach escalates from warning to critical.
const DefaultMultiplier = 1.2

// RuleSet holds per-domain threshold rules. Thresholds and the critical
// multiplier are configuration, not constants: regulatory limits differ
// per plant.
type RuleSet struct {
	// Multiplier applied when a domain has no override
	Multiplier float64 `yaml:"multiplier"`

	// Domains maps a domain tag to its rules
	Domains map[string]DomainRules `yaml:"domains"`
}

// DomainRules holds one domain's threshold overrides.
type DomainRules struct {
	Multiplier float64            `yaml:"multiplier,omitempty"`
	Thresholds map[string]float64 `yaml:"thresholds,omitempty"`
}

// DefaultRules returns the built-in rule set with typical limits for a
// coal-fired unit.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Multiplier: DefaultMultiplier,
		Domains: map[string]DomainRules{
			"emission": {
				Thresholds: map[string]float64{
					"sox":  200, // mg/Nm3
					"nox":  300, // mg/Nm3
					"co2":  950, // g/kWh
					"dust": 50,  // mg/Nm3
				},
			},
			"equipment": {
				Thresholds: map[string]float64{
					"temperature": 550, // deg C
					"pressure":    170, // bar
					"vibration":   7.5, // mm/s
					"efficiency":  85,  // percent, lower bound
				},
			},
			"load": {
				Thresholds: map[string]float64{
					"grid_load": 660,  // MW
					"demand":    640,  // MW
					"frequency": 50.5, // Hz
				},
			},
			"ash_storage": {
				Thresholds: map[string]float64{
					"fill_level": 80, // percent
					"moisture":   35, // percent
				},
			},
		},
	}
}

// LoadRules reads a YAML rule file and overlays it on the defaults.
// Domains or parameters missing from the file keep their default rules.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var loaded RuleSet
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}

	rules := DefaultRules()
	if loaded.Multiplier > 0 {
		rules.Multiplier = loaded.Multiplier
	}
	for domain, dr := range loaded.Domains {
		base := rules.Domains[domain]
		if dr.Multiplier > 0 {
			base.Multiplier = dr.Multiplier
		}
		if base.Thresholds == nil {
			base.Thresholds = make(map[string]float64)
		}
		for param, threshold := range dr.Thresholds {
			base.Thresholds[param] = threshold
		}
		rules.Domains[domain] = base
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate checks rule invariants.
func (r *RuleSet) Validate() error {
	if r.Multiplier <= 1 {
		return fmt.Errorf("rules: multiplier must be > 1, got %v", r.Multiplier)
	}
	for domain, dr := range r.Domains {
		if dr.Multiplier != 0 && dr.Multiplier <= 1 {
			return fmt.Errorf("rules: domain %s multiplier must be > 1, got %v", domain, dr.Multiplier)
		}
		for param, threshold := range dr.Thresholds {
			if threshold <= 0 {
				return fmt.Errorf("rules: domain %s parameter %s threshold must be > 0, got %v", domain, param, threshold)
			}
		}
	}
	return nil
}

// MultiplierFor returns the critical multiplier for domain
func (r *RuleSet) MultiplierFor(domain string) float64 {
	if dr, ok := r.Domains[domain]; ok && dr.Multiplier > 0 {
		return dr.Multiplier
	}
	if r.Multiplier > 0 {
		return r.Multiplier
	}
	return DefaultMultiplier
}

// ThresholdFor returns the configured threshold for a domain parameter
func (r *RuleSet) ThresholdFor(domain, param string) (float64, bool) {
	dr, ok := r.Domains[domain]
	if !ok {
		return 0, false
	}
	threshold, ok := dr.Thresholds[param]
	return threshold, ok
}
