package gate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
)

// CanonicalForecastType collapses legacy forecast-type spellings to one key.
// The source system registered gates under both REGIME and
// REGIME_CLASSIFICATION; only REGIME is stored here.
func CanonicalForecastType(forecastType string) string {
	if forecastType == "REGIME_CLASSIFICATION" {
		return "REGIME"
	}
	return forecastType
}

// Calibration is the calibrator's output, kept for the decision audit trail.
type Calibration struct {
	Raw        float64
	Ceiling    float64
	Calibrated float64
	GateKey    string
	GateFound  bool
}

// ConfidenceCalibrator caps raw forecast confidence at the learned ceiling
// for the proposal's forecast-type and regime. Missing gates fail closed.
type ConfidenceCalibrator struct {
	gates repository.GateRegistry
}

func NewConfidenceCalibrator(gates repository.GateRegistry) *ConfidenceCalibrator {
	return &ConfidenceCalibrator{gates: gates}
}

// Calibrate looks up the gate and returns min(raw, ceiling). A missing gate
// yields GateFound=false with a zero ceiling; registry failures are returned
// as errors and must abort the admission rather than guess.
func (c *ConfidenceCalibrator) Calibrate(ctx context.Context, forecastType, regime string, raw float64) (Calibration, error) {
	key := CanonicalForecastType(forecastType)
	result := Calibration{Raw: raw, GateKey: models.GateKey(key, regime)}

	g, err := c.gates.Lookup(ctx, key, regime)
	if err != nil {
		if errors.Is(err, repository.ErrGateNotFound) {
			return result, nil
		}
		return result, fmt.Errorf("lookup gate %s: %w", result.GateKey, err)
	}

	result.GateFound = true
	result.Ceiling = g.Ceiling
	result.Calibrated = math.Min(raw, g.Ceiling)
	return result, nil
}
