package models

import "time"

// CalibrationGate is a learned confidence ceiling for one forecast-type and
// regime pair. Ceilings come from the calibration learner and may be zero,
// which suppresses all trades for that pair until recalibration.
type CalibrationGate struct {
	ForecastType string    `json:"forecast_type"`
	Regime       string    `json:"regime"`
	Ceiling      float64   `json:"ceiling"`
	SampleCount  int       `json:"sample_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the composite lookup key used by the gate registry.
func (g CalibrationGate) Key() string {
	return GateKey(g.ForecastType, g.Regime)
}

// GateKey builds the canonical "<forecast_type>:<regime>" key.
func GateKey(forecastType, regime string) string {
	return forecastType + ":" + regime
}
