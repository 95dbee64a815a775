package usecase

import (
	"context"
	"sync"
	"time"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	"TradeGate/pkg/config"
	"TradeGate/pkg/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyGateDefaults()
	return cfg
}

func testLogger() *logger.Logger {
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

type memGates struct{ gates map[string]*models.CalibrationGate }

func (m *memGates) Lookup(_ context.Context, ft, regime string) (*models.CalibrationGate, error) {
	g, ok := m.gates[models.GateKey(ft, regime)]
	if !ok {
		return nil, drepo.ErrGateNotFound
	}
	return g, nil
}

func (m *memGates) List(_ context.Context) ([]*models.CalibrationGate, error) { return nil, nil }

type memDecisions struct {
	mu      sync.Mutex
	stored  []*models.AdmissionDecision
	failErr error
}

func (m *memDecisions) Init(context.Context) error   { return nil }
func (m *memDecisions) Health(context.Context) error { return nil }
func (m *memDecisions) Close() error                 { return nil }

func (m *memDecisions) Store(_ context.Context, d *models.AdmissionDecision) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, d)
	return nil
}

func (m *memDecisions) Query(context.Context, drepo.DecisionFilter) ([]*models.AdmissionDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.AdmissionDecision(nil), m.stored...), nil
}

func (m *memDecisions) last() *models.AdmissionDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stored) == 0 {
		return nil
	}
	return m.stored[len(m.stored)-1]
}

type memHistory struct {
	assetCount int
	dirs       map[models.Direction]int
}

func (m *memHistory) CountAssetTrades(context.Context, string, time.Time) (int, error) {
	return m.assetCount, nil
}

func (m *memHistory) DirectionCounts(context.Context, string, time.Time) (map[models.Direction]int, error) {
	return m.dirs, nil
}

type memBeliefs struct{ regime string }

func (m *memBeliefs) LatestRegime(context.Context) (string, time.Time, error) {
	return m.regime, time.Time{}, nil
}

func (m *memBeliefs) RecordRegime(context.Context, string, time.Time) error { return nil }

type memExceptions struct {
	floor  float64
	active bool
}

func (m *memExceptions) Store(context.Context, *models.CadenceException) error { return nil }

func (m *memExceptions) ActiveFloor(context.Context, time.Time) (float64, bool, error) {
	return m.floor, m.active, nil
}

type memCounter struct {
	mu      sync.Mutex
	counts  map[string]int
	incErr  error
	barrier chan struct{} // when set, Increment waits here so tests can force overlap
}

func (m *memCounter) AdmittedToday(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[day], nil
}

func (m *memCounter) Increment(_ context.Context, day string) (int, error) {
	if m.barrier != nil {
		<-m.barrier
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return 0, m.incErr
	}
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[day]++
	return m.counts[day], nil
}

func (m *memCounter) Decrement(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[day]--
	return m.counts[day], nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (m *memLocker) TryLock(_ context.Context, asset string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[asset] {
		return false, nil
	}
	m.held[asset] = true
	return true, nil
}

func (m *memLocker) Unlock(_ context.Context, asset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, asset)
	return nil
}

type memPrices struct {
	closes []float64
	tier   models.LiquidityTier
}

func (m *memPrices) DailyCloses(context.Context, string, int) ([]float64, error) {
	return m.closes, nil
}

func (m *memPrices) LiquidityTier(context.Context, string) (models.LiquidityTier, error) {
	return m.tier, nil
}

type memHaltStore struct {
	mu          sync.Mutex
	state       *models.HaltState
	transitions []*models.HaltTransition
}

func (m *memHaltStore) Load(context.Context) (*models.HaltState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memHaltStore) Save(_ context.Context, s *models.HaltState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.state = &cp
	return nil
}

func (m *memHaltStore) AppendTransition(_ context.Context, t *models.HaltTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return nil
}

type memPerf struct{ snap *models.DailyPerformanceSnapshot }

func (m *memPerf) Latest(context.Context) (*models.DailyPerformanceSnapshot, error) {
	return m.snap, nil
}

type memPublisher struct {
	mu        sync.Mutex
	decisions []*models.AdmissionDecision
	halts     []*models.HaltTransition
}

func (m *memPublisher) PublishDecision(_ context.Context, d *models.AdmissionDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *memPublisher) PublishHalt(_ context.Context, t *models.HaltTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halts = append(m.halts, t)
	return nil
}

func (m *memPublisher) Close() error { return nil }

type memPlans struct {
	mu        sync.Mutex
	enqueued  []interface{}
	suspended bool
}

func (m *memPlans) Enqueue(_ context.Context, _ string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, payload)
	return nil
}

func (m *memPlans) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
}

func (m *memPlans) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = false
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, bool, string) {}
func (nopMetrics) RecordHaltLevel(string)              {}
func (nopMetrics) RecordThreshold(float64)             {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLatency(string, float64)       {}

type fixedSizer struct {
	size float64
	gain float64
	err  error
}

func (f fixedSizer) Size(context.Context, float64, float64, float64) (float64, float64, error) {
	return f.size, f.gain, f.err
}
