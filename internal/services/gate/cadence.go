package gate

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/config"
	"TradeGate/pkg/util"
)

// Threshold is the cadence-adjusted admission threshold with audit fields.
type Threshold struct {
	Value         float64
	Base          float64
	Floor         float64
	AdmittedToday int
	Adjusted      bool
	ExceptionUsed bool
	Reason        string
}

// CadenceThresholdAdjuster relaxes the admission threshold when today's trade
// cadence falls short of the minimum, bounded by a hard floor that only an
// approved same-day exception can lower.
type CadenceThresholdAdjuster struct {
	counter    repository.CadenceCounter
	exceptions repository.ExceptionStore

	base     float64
	floor    float64
	step     float64
	minDaily int
}

func NewCadenceThresholdAdjuster(cfg *config.Config, counter repository.CadenceCounter, exceptions repository.ExceptionStore) *CadenceThresholdAdjuster {
	return &CadenceThresholdAdjuster{
		counter:    counter,
		exceptions: exceptions,
		base:       cfg.Gate.BaseThreshold,
		floor:      cfg.Gate.ThresholdFloor,
		step:       cfg.Gate.RelaxStep,
		minDaily:   cfg.Gate.MinDailyTrades,
	}
}

// EffectiveThreshold computes today's threshold from the current counter
// value. Read-only; admission uses ThresholdForCount with a reserved count.
func (a *CadenceThresholdAdjuster) EffectiveThreshold(ctx context.Context, now time.Time) (Threshold, error) {
	day := util.DayKey(now)
	count, err := a.counter.AdmittedToday(ctx, day)
	if err != nil {
		return Threshold{}, fmt.Errorf("read cadence counter %s: %w", day, err)
	}
	return a.ThresholdForCount(ctx, count, now)
}

// ThresholdForCount computes the threshold for a known admitted count. At or
// above the minimum cadence the base applies unchanged; below it the
// threshold is relaxed by one step per missing trade, never past the floor.
// An active exception can lower the floor for today but never raise it.
func (a *CadenceThresholdAdjuster) ThresholdForCount(ctx context.Context, count int, now time.Time) (Threshold, error) {
	t := Threshold{Value: a.base, Base: a.base, Floor: a.floor, AdmittedToday: count}
	if count >= a.minDaily {
		t.Reason = fmt.Sprintf("cadence at target: %d of %d admitted", count, a.minDaily)
		return t, nil
	}

	floor := a.floor
	exFloor, ok, err := a.exceptions.ActiveFloor(ctx, now)
	if err != nil {
		return Threshold{}, fmt.Errorf("read cadence exceptions: %w", err)
	}
	if ok && exFloor < floor {
		floor = exFloor
		t.ExceptionUsed = true
	}
	t.Floor = floor

	proposed := a.base - a.step*float64(a.minDaily-count)
	if proposed < floor {
		proposed = floor
	}

	t.Value = proposed
	t.Adjusted = proposed != a.base
	t.Reason = fmt.Sprintf("cadence below target: %d of %d admitted, threshold relaxed to %.4f", count, a.minDaily, proposed)
	return t, nil
}
