// Package evaluate holds the per-domain threshold evaluators. Evaluation
// is pure: identical snapshot and rules always yield identical breaches,
// and no I/O happens here.
package evaluate

import (
	"plantwatch/internal/config"
	"plantwatch/internal/models"
)

// Breach is one parameter over (or under) its limit, tagged with the
// locally computed severity. Breaches are not yet violations: the
// classifier decides which of them are new for the snapshot.
type Breach struct {
	Parameter models.Parameter
	Severity  models.Severity
}

// Evaluate returns every parameter of snap that breaches its threshold.
// Parameters without a configured threshold are skipped, not treated as
// breaches.
func Evaluate(snap *models.Snapshot, rules *config.RuleSet) []Breach {
	if snap == nil || len(snap.Parameters) == 0 {
		return nil
	}

	mult := rules.MultiplierFor(string(snap.Domain))

	var breaches []Breach
	for _, p := range snap.Parameters {
		if p.Threshold <= 0 {
			// Snapshot rows may omit the limit; fall back to configured rules.
			threshold, ok := rules.ThresholdFor(string(snap.Domain), p.Name)
			if !ok {
				continue
			}
			p.Threshold = threshold
		}

		sev := Classify(p, mult)
		if sev == models.SeverityNormal {
			continue
		}
		breaches = append(breaches, Breach{Parameter: p, Severity: sev})
	}
	return breaches
}

// Classify derives the severity of a single parameter reading. Upper
// bound parameters escalate to critical past threshold*mult; lower
// bound parameters escalate below threshold/mult.
func Classify(p models.Parameter, mult float64) models.Severity {
	if mult <= 1 {
		mult = config.DefaultMultiplier
	}

	switch p.Bound {
	case models.BoundLower:
		switch {
		case p.Value < p.Threshold/mult:
			return models.SeverityCritical
		case p.Value < p.Threshold:
			return models.SeverityWarning
		}
	default: // upper bound
		switch {
		case p.Value > p.Threshold*mult:
			return models.SeverityCritical
		case p.Value > p.Threshold:
			return models.SeverityWarning
		}
	}
	return models.SeverityNormal
}
