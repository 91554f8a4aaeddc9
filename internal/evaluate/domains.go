package evaluate

import (
	"time"

	"plantwatch/internal/config"
	"plantwatch/internal/models"
)

// Each domain's parameter set is a fixed, named struct rather than a
// generic key-value bag, so threshold comparisons are checked at compile
// time. The Snapshot builders attach configured thresholds and keep the
// parameter order stable.

// EmissionReading is one stack emission measurement set
type EmissionReading struct {
	SOx  float64 // mg/Nm3
	NOx  float64 // mg/Nm3
	CO2  float64 // g/kWh
	Dust float64 // mg/Nm3
}

// Snapshot converts the reading into a telemetry snapshot
func (r EmissionReading) Snapshot(id string, at time.Time, rules *config.RuleSet) *models.Snapshot {
	return buildSnapshot(id, models.DomainEmission, at, rules, []reading{
		{"sox", r.SOx, "mg/Nm3", models.BoundUpper},
		{"nox", r.NOx, "mg/Nm3", models.BoundUpper},
		{"co2", r.CO2, "g/kWh", models.BoundUpper},
		{"dust", r.Dust, "mg/Nm3", models.BoundUpper},
	})
}

// EquipmentReading is one turbine/boiler condition measurement set
type EquipmentReading struct {
	TemperatureC  float64
	PressureBar   float64
	VibrationMmS  float64
	EfficiencyPct float64
}

// Snapshot converts the reading into a telemetry snapshot
func (r EquipmentReading) Snapshot(id string, at time.Time, rules *config.RuleSet) *models.Snapshot {
	return buildSnapshot(id, models.DomainEquipment, at, rules, []reading{
		{"temperature", r.TemperatureC, "degC", models.BoundUpper},
		{"pressure", r.PressureBar, "bar", models.BoundUpper},
		{"vibration", r.VibrationMmS, "mm/s", models.BoundUpper},
		// Efficiency degrades downward; breach is a drop below minimum.
		{"efficiency", r.EfficiencyPct, "%", models.BoundLower},
	})
}

// LoadReading is one grid load measurement set
type LoadReading struct {
	GridLoadMW  float64
	DemandMW    float64
	FrequencyHz float64
}

// Snapshot converts the reading into a telemetry snapshot
func (r LoadReading) Snapshot(id string, at time.Time, rules *config.RuleSet) *models.Snapshot {
	return buildSnapshot(id, models.DomainLoad, at, rules, []reading{
		{"grid_load", r.GridLoadMW, "MW", models.BoundUpper},
		{"demand", r.DemandMW, "MW", models.BoundUpper},
		{"frequency", r.FrequencyHz, "Hz", models.BoundUpper},
	})
}

// AshStorageReading is one ash pond/silo measurement set
type AshStorageReading struct {
	FillLevelPct float64
	MoisturePct  float64
}

// Snapshot converts the reading into a telemetry snapshot
func (r AshStorageReading) Snapshot(id string, at time.Time, rules *config.RuleSet) *models.Snapshot {
	return buildSnapshot(id, models.DomainAshStorage, at, rules, []reading{
		{"fill_level", r.FillLevelPct, "%", models.BoundUpper},
		{"moisture", r.MoisturePct, "%", models.BoundUpper},
	})
}

type reading struct {
	name  string
	value float64
	unit  string
	bound models.Bound
}

func buildSnapshot(id string, domain models.Domain, at time.Time, rules *config.RuleSet, readings []reading) *models.Snapshot {
	params := make([]models.Parameter, 0, len(readings))
	for _, r := range readings {
		threshold, _ := rules.ThresholdFor(string(domain), r.name)
		params = append(params, models.Parameter{
			Name:      r.name,
			Value:     r.value,
			Unit:      r.unit,
			Threshold: threshold,
			Bound:     r.bound,
		})
	}
	return &models.Snapshot{
		ID:         id,
		Domain:     domain,
		Parameters: params,
		CapturedAt: at.UTC(),
	}
}
