package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"TradeGate/internal/domain/models"
)

func snapshot(day string, hitRate, brier, highAcc float64, highCount int) *models.DailyPerformanceSnapshot {
	return &models.DailyPerformanceSnapshot{
		Day:                    day,
		TradeCount:             20,
		HitRate:                hitRate,
		BrierScore:             brier,
		HighConfidenceCount:    highCount,
		HighConfidenceAccuracy: highAcc,
	}
}

func TestHaltStaysNoneOnHealthyMetrics(t *testing.T) {
	store := &fakeHaltStore{}
	perf := &fakePerf{snap: snapshot("2024-10-10", 0.55, 0.20, 0.70, 10)}
	c := NewEpistemicHaltController(testConfig(), store, perf)

	state, tr, err := c.Evaluate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltNone || tr != nil {
		t.Fatalf("expected NONE with no transition, got %+v", state)
	}
}

func TestHaltInversionTwoDaysTripsHard(t *testing.T) {
	store := &fakeHaltStore{}
	perf := &fakePerf{snap: snapshot("2024-10-10", 0.55, 0.20, 0.30, 10)}
	c := NewEpistemicHaltController(testConfig(), store, perf)
	now := time.Date(2024, 10, 10, 23, 0, 0, 0, time.UTC)

	state, tr, err := c.Evaluate(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltNone || state.InversionStreak != 1 || tr != nil {
		t.Fatalf("expected first inversion day to stay NONE, got %+v", state)
	}

	perf.snap = snapshot("2024-10-11", 0.55, 0.20, 0.25, 8)
	state, tr, err = c.Evaluate(context.Background(), now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltHard {
		t.Fatalf("expected HARD_HALT after 2 inversion days, got %v", state.Level)
	}
	if tr == nil || tr.To != models.HaltHard {
		t.Fatalf("expected hard transition, got %+v", tr)
	}
	if !strings.Contains(tr.Reason, "0.80") {
		t.Fatalf("expected confidence cutoff in reason, got %q", tr.Reason)
	}
}

func TestHardHaltIsSticky(t *testing.T) {
	store := &fakeHaltStore{state: &models.HaltState{Level: models.HaltHard, Reason: "inversion"}}
	// Healthy metrics must not matter.
	perf := &fakePerf{snap: snapshot("2024-10-12", 0.60, 0.15, 0.90, 10)}
	c := NewEpistemicHaltController(testConfig(), store, perf)

	for i := 0; i < 3; i++ {
		state, tr, err := c.Evaluate(context.Background(), time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Level != models.HaltHard || tr != nil {
			t.Fatalf("expected sticky HARD_HALT, got %v", state.Level)
		}
	}
}

func TestHardHaltClearedByAttestation(t *testing.T) {
	store := &fakeHaltStore{state: &models.HaltState{Level: models.HaltHard, InversionStreak: 2}}
	c := NewEpistemicHaltController(testConfig(), store, &fakePerf{})

	state, tr, err := c.Clear(context.Background(), time.Now(), "risk-officer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltNone {
		t.Fatalf("expected NONE after clear, got %v", state.Level)
	}
	if state.InversionStreak != 0 {
		t.Fatalf("expected streak reset, got %d", state.InversionStreak)
	}
	if tr == nil || tr.ClearedBy != "risk-officer" {
		t.Fatalf("expected clear transition, got %+v", tr)
	}
}

func TestSoftHaltOnHitRateDecline(t *testing.T) {
	store := &fakeHaltStore{}
	perf := &fakePerf{}
	c := NewEpistemicHaltController(testConfig(), store, perf)
	now := time.Date(2024, 10, 10, 23, 0, 0, 0, time.UTC)

	hitRates := []float64{0.60, 0.55, 0.50, 0.45}
	days := []string{"2024-10-10", "2024-10-11", "2024-10-12", "2024-10-13"}
	var state *models.HaltState
	var err error
	for i := range days {
		perf.snap = snapshot(days[i], hitRates[i], 0.20, 0.70, 10)
		state, _, err = c.Evaluate(context.Background(), now.Add(time.Duration(i)*24*time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if state.Level != models.HaltSoft {
		t.Fatalf("expected SOFT_HALT after 3 declining days, got %v", state.Level)
	}
	if state.SoftHaltUntil.IsZero() {
		t.Fatalf("expected soft-halt timer set")
	}
}

func TestSoftHaltHoldsUntilTimerExpires(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeHaltStore{state: &models.HaltState{
		Level:         models.HaltSoft,
		Reason:        "hit rate declined 3 consecutive days",
		SoftHaltUntil: now.Add(12 * time.Hour),
	}}
	perf := &fakePerf{snap: snapshot("2024-10-10", 0.60, 0.15, 0.90, 10)}
	c := NewEpistemicHaltController(testConfig(), store, perf)

	state, tr, err := c.Evaluate(context.Background(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltSoft || tr != nil {
		t.Fatalf("expected timer to hold soft halt, got %v", state.Level)
	}

	// After expiry the metrics decide again.
	state, tr, err = c.Evaluate(context.Background(), now.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltNone {
		t.Fatalf("expected NONE after expiry with healthy metrics, got %v", state.Level)
	}
	if tr != nil {
		t.Fatalf("expected no transition record for timer expiry, got %+v", tr)
	}
	if state.Reason != "" || !state.SoftHaltUntil.IsZero() {
		t.Fatalf("expected lapsed halt fields cleared, got reason %q until %v", state.Reason, state.SoftHaltUntil)
	}
}

func TestHaltRepeatedErrorsTripSoft(t *testing.T) {
	store := &fakeHaltStore{}
	snap := snapshot("2024-10-10", 0.55, 0.20, 0.70, 10)
	snap.ErrorCounts = map[string]int{"FEED_TIMEOUT": 4}
	c := NewEpistemicHaltController(testConfig(), store, &fakePerf{snap: snap})

	state, tr, err := c.Evaluate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltSoft {
		t.Fatalf("expected SOFT_HALT on repeated errors, got %v", state.Level)
	}
	if tr == nil || tr.From != models.HaltNone {
		t.Fatalf("expected transition from NONE, got %+v", tr)
	}
}

func TestHaltEvaluationIdempotentPerSnapshot(t *testing.T) {
	store := &fakeHaltStore{}
	perf := &fakePerf{snap: snapshot("2024-10-10", 0.55, 0.20, 0.30, 10)}
	c := NewEpistemicHaltController(testConfig(), store, perf)
	now := time.Date(2024, 10, 10, 23, 0, 0, 0, time.UTC)

	first, _, err := c.Evaluate(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, tr, err := c.Evaluate(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.InversionStreak != first.InversionStreak {
		t.Fatalf("re-evaluation advanced streaks: %d vs %d", second.InversionStreak, first.InversionStreak)
	}
	if second.Level != first.Level || tr != nil {
		t.Fatalf("expected stable state, got %v", second.Level)
	}
}
