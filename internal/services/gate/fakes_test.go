package gate

import (
	"context"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyGateDefaults()
	return cfg
}

type fakeGateRegistry struct {
	gates map[string]*models.CalibrationGate
	err   error
}

func (f *fakeGateRegistry) Lookup(_ context.Context, forecastType, regime string) (*models.CalibrationGate, error) {
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.gates[models.GateKey(forecastType, regime)]
	if !ok {
		return nil, repository.ErrGateNotFound
	}
	return g, nil
}

func (f *fakeGateRegistry) List(_ context.Context) ([]*models.CalibrationGate, error) {
	out := make([]*models.CalibrationGate, 0, len(f.gates))
	for _, g := range f.gates {
		out = append(out, g)
	}
	return out, nil
}

type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f *fakeCounter) AdmittedToday(_ context.Context, day string) (int, error) {
	return f.counts[day], f.err
}

func (f *fakeCounter) Increment(_ context.Context, day string) (int, error) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[day]++
	return f.counts[day], f.err
}

func (f *fakeCounter) Decrement(_ context.Context, day string) (int, error) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[day]--
	return f.counts[day], f.err
}

type fakeExceptions struct {
	floor  float64
	active bool
	err    error
}

func (f *fakeExceptions) Store(_ context.Context, _ *models.CadenceException) error { return f.err }

func (f *fakeExceptions) ActiveFloor(_ context.Context, _ time.Time) (float64, bool, error) {
	return f.floor, f.active, f.err
}

type fakeBeliefs struct {
	regime string
	at     time.Time
	err    error
}

func (f *fakeBeliefs) LatestRegime(_ context.Context) (string, time.Time, error) {
	return f.regime, f.at, f.err
}

func (f *fakeBeliefs) RecordRegime(_ context.Context, regime string, at time.Time) error {
	f.regime, f.at = regime, at
	return nil
}

type fakeHistory struct {
	assetCount int
	dirs       map[models.Direction]int
	err        error
}

func (f *fakeHistory) CountAssetTrades(_ context.Context, _ string, _ time.Time) (int, error) {
	return f.assetCount, f.err
}

func (f *fakeHistory) DirectionCounts(_ context.Context, _ string, _ time.Time) (map[models.Direction]int, error) {
	return f.dirs, f.err
}

type fakePrices struct {
	closes []float64
	tier   models.LiquidityTier
	err    error
}

func (f *fakePrices) DailyCloses(_ context.Context, _ string, _ int) ([]float64, error) {
	return f.closes, f.err
}

func (f *fakePrices) LiquidityTier(_ context.Context, _ string) (models.LiquidityTier, error) {
	return f.tier, f.err
}

type fakeHaltStore struct {
	state       *models.HaltState
	transitions []*models.HaltTransition
	loadErr     error
	saveErr     error
}

func (f *fakeHaltStore) Load(_ context.Context) (*models.HaltState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state, nil
}

func (f *fakeHaltStore) Save(_ context.Context, s *models.HaltState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *s
	f.state = &cp
	return nil
}

func (f *fakeHaltStore) AppendTransition(_ context.Context, t *models.HaltTransition) error {
	f.transitions = append(f.transitions, t)
	return nil
}

type fakePerf struct {
	snap *models.DailyPerformanceSnapshot
	err  error
}

func (f *fakePerf) Latest(_ context.Context) (*models.DailyPerformanceSnapshot, error) {
	return f.snap, f.err
}
