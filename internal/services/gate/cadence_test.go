package gate

import (
	"context"
	"testing"
	"time"

	"TradeGate/pkg/util"
)

func TestThresholdAtTargetUsesBase(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	counter := &fakeCounter{counts: map[string]int{util.DayKey(now): 5}}
	a := NewCadenceThresholdAdjuster(testConfig(), counter, &fakeExceptions{})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0.25 || got.Adjusted {
		t.Fatalf("expected base threshold, got %+v", got)
	}
}

func TestThresholdFloorBinds(t *testing.T) {
	// Zero trades against a minimum of five proposes 0.20; the 0.22 floor binds.
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	a := NewCadenceThresholdAdjuster(testConfig(), &fakeCounter{}, &fakeExceptions{})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0.22 {
		t.Fatalf("expected floor 0.22, got %v", got.Value)
	}
	if !got.Adjusted || got.ExceptionUsed {
		t.Fatalf("unexpected audit fields: %+v", got)
	}
}

func TestThresholdExceptionLowersFloor(t *testing.T) {
	// With an approved 0.15 floor the computed 0.20 stands; the floor no longer binds.
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	a := NewCadenceThresholdAdjuster(testConfig(), &fakeCounter{}, &fakeExceptions{floor: 0.15, active: true})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0.20 {
		t.Fatalf("expected 0.20, got %v", got.Value)
	}
	if !got.ExceptionUsed {
		t.Fatalf("expected exception in effect")
	}
}

func TestThresholdExceptionCannotRaiseFloor(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	a := NewCadenceThresholdAdjuster(testConfig(), &fakeCounter{}, &fakeExceptions{floor: 0.30, active: true})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0.22 || got.ExceptionUsed {
		t.Fatalf("expected default floor to hold, got %+v", got)
	}
}

func TestThresholdZeroExceptionFloorHonored(t *testing.T) {
	// A granted floor of exactly zero is a real exception, not the absence of
	// one; the computed 0.20 stands with no floor binding.
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	a := NewCadenceThresholdAdjuster(testConfig(), &fakeCounter{}, &fakeExceptions{floor: 0, active: true})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 0.20 {
		t.Fatalf("expected 0.20, got %v", got.Value)
	}
	if got.Floor != 0 || !got.ExceptionUsed {
		t.Fatalf("expected zero floor in effect, got %+v", got)
	}
}

func TestThresholdPartialCadence(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	counter := &fakeCounter{counts: map[string]int{util.DayKey(now): 3}}
	a := NewCadenceThresholdAdjuster(testConfig(), counter, &fakeExceptions{})

	got, err := a.EffectiveThreshold(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.25 - 0.01*2 = 0.23, above the floor.
	if got.Value < 0.2299 || got.Value > 0.2301 {
		t.Fatalf("expected ~0.23, got %v", got.Value)
	}
}
