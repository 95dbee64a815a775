package gate

import (
	"context"
	"errors"
	"testing"

	"TradeGate/internal/domain/models"
)

func TestCalibrateCapsAtCeiling(t *testing.T) {
	reg := &fakeGateRegistry{gates: map[string]*models.CalibrationGate{
		"REGIME:STRESS": {ForecastType: "REGIME", Regime: "STRESS", Ceiling: 0.50},
	}}
	c := NewConfidenceCalibrator(reg)

	got, err := c.Calibrate(context.Background(), "REGIME", "STRESS", 0.90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.GateFound {
		t.Fatalf("expected gate found")
	}
	if got.Calibrated != 0.50 {
		t.Fatalf("expected calibrated 0.50, got %v", got.Calibrated)
	}
}

func TestCalibratePassesThroughBelowCeiling(t *testing.T) {
	reg := &fakeGateRegistry{gates: map[string]*models.CalibrationGate{
		"REGIME:NEUTRAL": {ForecastType: "REGIME", Regime: "NEUTRAL", Ceiling: 0.80},
	}}
	c := NewConfidenceCalibrator(reg)

	got, err := c.Calibrate(context.Background(), "REGIME", "NEUTRAL", 0.60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Calibrated != 0.60 {
		t.Fatalf("expected calibrated 0.60, got %v", got.Calibrated)
	}
}

func TestCalibrateMissingGateFailsClosed(t *testing.T) {
	c := NewConfidenceCalibrator(&fakeGateRegistry{})

	got, err := c.Calibrate(context.Background(), "REGIME", "UNSEEN", 0.90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GateFound {
		t.Fatalf("expected gate not found")
	}
	if got.Ceiling != 0 || got.Calibrated != 0 {
		t.Fatalf("expected zero ceiling, got %+v", got)
	}
}

func TestCalibrateNormalizesLegacyForecastType(t *testing.T) {
	reg := &fakeGateRegistry{gates: map[string]*models.CalibrationGate{
		"REGIME:STRESS": {ForecastType: "REGIME", Regime: "STRESS", Ceiling: 0.50},
	}}
	c := NewConfidenceCalibrator(reg)

	got, err := c.Calibrate(context.Background(), "REGIME_CLASSIFICATION", "STRESS", 0.90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.GateFound || got.Calibrated != 0.50 {
		t.Fatalf("expected legacy key to resolve, got %+v", got)
	}
}

func TestCalibrateRegistryErrorPropagates(t *testing.T) {
	boom := errors.New("registry down")
	c := NewConfidenceCalibrator(&fakeGateRegistry{err: boom})

	if _, err := c.Calibrate(context.Background(), "REGIME", "STRESS", 0.90); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped registry error, got %v", err)
	}
}
