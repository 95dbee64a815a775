package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/services/gate"
)

type pipelineEnv struct {
	pipeline  *AdmissionPipeline
	halt      *HaltService
	decisions *memDecisions
	counter   *memCounter
	publisher *memPublisher
	plans     *memPlans
	haltStore *memHaltStore
	perf      *memPerf
	locker    *memLocker
}

func newPipelineEnv() *pipelineEnv {
	cfg := testConfig()
	log := testLogger()

	gates := &memGates{gates: map[string]*models.CalibrationGate{
		"REGIME:STRESS":  {ForecastType: "REGIME", Regime: "STRESS", Ceiling: 0.50},
		"REGIME:NEUTRAL": {ForecastType: "REGIME", Regime: "NEUTRAL", Ceiling: 0.90},
		"REGIME:RANGE":   {ForecastType: "REGIME", Regime: "RANGE", Ceiling: 0.23},
	}}
	decisions := &memDecisions{}
	counter := &memCounter{}
	locker := &memLocker{}
	publisher := &memPublisher{}
	plans := &memPlans{}
	haltStore := &memHaltStore{}
	perf := &memPerf{snap: &models.DailyPerformanceSnapshot{
		Day: "2024-10-10", TradeCount: 20, HitRate: 0.55, BrierScore: 0.20,
		HighConfidenceCount: 10, HighConfidenceAccuracy: 0.70,
	}}

	controller := gate.NewEpistemicHaltController(cfg, haltStore, perf)
	halt := NewHaltService(cfg, controller, publisher, plans, nopMetrics{}, log)

	pipeline := NewAdmissionPipeline(
		cfg,
		halt,
		gate.NewConfidenceCalibrator(gates),
		gate.NewCadenceThresholdAdjuster(cfg, counter, &memExceptions{}),
		gate.NewNoveltyScorer(&memBeliefs{regime: "NEUTRAL"}, &memHistory{assetCount: 3, dirs: map[models.Direction]int{models.DirectionUp: 2, models.DirectionDown: 1}}),
		gate.NewSlippageModel(cfg, &memPrices{tier: models.LiquidityTier1}),
		fixedSizer{size: 100, gain: 0.4},
		decisions,
		counter,
		locker,
		publisher,
		plans,
		nopMetrics{},
		log,
	)

	return &pipelineEnv{
		pipeline:  pipeline,
		halt:      halt,
		decisions: decisions,
		counter:   counter,
		publisher: publisher,
		plans:     plans,
		haltStore: haltStore,
		perf:      perf,
		locker:    locker,
	}
}

func proposal() *models.TradeProposal {
	return &models.TradeProposal{
		Asset:         "BTC-USD",
		Instrument:    "PERP",
		Direction:     models.DirectionUp,
		RawConfidence: 0.90,
		ForecastType:  "REGIME",
		Regime:        "NEUTRAL",
		EntryPrice:    64000,
		BaseSize:      100,
		SubmittedAt:   time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestPipelineAdmitsAndPersists(t *testing.T) {
	env := newPipelineEnv()

	d, err := env.pipeline.Decide(context.Background(), proposal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Executed {
		t.Fatalf("expected admitted, got blocked: %s %s", d.BlockedReason, d.BlockedDetail)
	}
	if d.TradeID == "" {
		t.Fatalf("expected generated trade id")
	}
	if d.CalibratedConfidence != 0.90 {
		t.Fatalf("unexpected calibrated confidence %v", d.CalibratedConfidence)
	}
	if d.PositionSize != 100 {
		t.Fatalf("unexpected size %v", d.PositionSize)
	}
	if env.decisions.last() == nil {
		t.Fatalf("decision not persisted")
	}
	if len(env.publisher.decisions) != 1 {
		t.Fatalf("decision not published")
	}
	if len(env.plans.enqueued) != 1 {
		t.Fatalf("execution plan not enqueued")
	}
	if n, _ := env.counter.AdmittedToday(context.Background(), "2024-10-10"); n != 1 {
		t.Fatalf("cadence counter not incremented, got %d", n)
	}
}

func TestPipelineCapsConfidence(t *testing.T) {
	env := newPipelineEnv()
	p := proposal()
	p.Regime = "STRESS"

	d, err := env.pipeline.Decide(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Executed || d.CalibratedConfidence != 0.50 {
		t.Fatalf("expected calibrated 0.50, got %+v", d)
	}
	if d.CalibratedConfidence > d.RawConfidence {
		t.Fatalf("calibrated exceeds raw")
	}
}

func TestPipelineBlocksOnMissingGate(t *testing.T) {
	env := newPipelineEnv()
	p := proposal()
	p.Regime = "UNSEEN"

	d, err := env.pipeline.Decide(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockCalibrationUnavailable {
		t.Fatalf("expected CALIBRATION_UNAVAILABLE, got %+v", d)
	}
	if env.decisions.last() == nil || env.decisions.last().Executed {
		t.Fatalf("blocked decision must be persisted")
	}
}

func TestPipelineBlocksBelowThreshold(t *testing.T) {
	env := newPipelineEnv()
	p := proposal()
	p.RawConfidence = 0.10

	d, err := env.pipeline.Decide(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockThresholdNotMet {
		t.Fatalf("expected THRESHOLD_NOT_MET, got %+v", d)
	}
	if d.CalibratedConfidence != 0.10 || d.EffectiveThreshold == 0 {
		t.Fatalf("expected both values recorded, got %+v", d)
	}
	if len(env.plans.enqueued) != 0 {
		t.Fatalf("blocked proposal must not enqueue a plan")
	}
}

func TestPipelineBlocksDuringHardHalt(t *testing.T) {
	env := newPipelineEnv()
	env.haltStore.state = &models.HaltState{
		Level:       models.HaltHard,
		Reason:      "high-confidence inversion",
		EvaluatedAt: time.Date(2024, 10, 10, 11, 59, 0, 0, time.UTC),
	}

	d, err := env.pipeline.Decide(context.Background(), proposal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockHaltActiveHard {
		t.Fatalf("expected HALT_ACTIVE_HARD, got %+v", d)
	}
}

func TestPipelineSoftHaltReportsRemaining(t *testing.T) {
	env := newPipelineEnv()
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	env.haltStore.state = &models.HaltState{
		Level:         models.HaltSoft,
		Reason:        "hit rate declined 3 consecutive days",
		SoftHaltUntil: now.Add(6 * time.Hour),
		EvaluatedAt:   now.Add(-time.Minute),
	}

	d, err := env.pipeline.Decide(context.Background(), proposal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.BlockedReason != models.BlockHaltActiveSoft {
		t.Fatalf("expected HALT_ACTIVE_SOFT, got %+v", d)
	}
	if d.BlockedDetail == "" {
		t.Fatalf("expected remaining time in detail")
	}
}

func TestPipelineConcurrentProposalsSerializeCadence(t *testing.T) {
	env := newPipelineEnv()
	day := "2024-10-10"
	env.counter.counts = map[string]int{day: 3}
	barrier := make(chan struct{})
	env.counter.barrier = barrier

	// With three trades admitted the threshold relaxes to 0.23 and the RANGE
	// gate caps confidence at exactly 0.23. Only the fourth slot admits; the
	// fifth sees threshold 0.24 and must be blocked even when both proposals
	// arrive at the counter at the same instant.
	first := proposal()
	first.Regime = "RANGE"
	second := proposal()
	second.Regime = "RANGE"
	second.Asset = "ETH-USD"

	type outcome struct {
		d   *models.AdmissionDecision
		err error
	}
	results := make(chan outcome, 2)
	for _, pr := range []*models.TradeProposal{first, second} {
		go func(pr *models.TradeProposal) {
			d, err := env.pipeline.Decide(context.Background(), pr)
			results <- outcome{d, err}
		}(pr)
	}
	// Each send completes only once a goroutine has reached the counter, so
	// both decisions are in flight before either threshold is computed.
	barrier <- struct{}{}
	barrier <- struct{}{}

	admitted, blocked := 0, 0
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.d.Executed {
			admitted++
			continue
		}
		blocked++
		if r.d.BlockedReason != models.BlockThresholdNotMet {
			t.Fatalf("expected THRESHOLD_NOT_MET, got %+v", r.d)
		}
	}
	if admitted != 1 || blocked != 1 {
		t.Fatalf("expected exactly one admission, got %d admitted and %d blocked", admitted, blocked)
	}
	if n, _ := env.counter.AdmittedToday(context.Background(), day); n != 4 {
		t.Fatalf("expected day count 4 after one admission, got %d", n)
	}
}

func TestPipelineBlockedProposalReleasesCadenceSlot(t *testing.T) {
	env := newPipelineEnv()
	p := proposal()
	p.RawConfidence = 0.10

	d, err := env.pipeline.Decide(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockThresholdNotMet {
		t.Fatalf("expected THRESHOLD_NOT_MET, got %+v", d)
	}
	if n, _ := env.counter.AdmittedToday(context.Background(), "2024-10-10"); n != 0 {
		t.Fatalf("blocked proposal must not hold a cadence slot, got %d", n)
	}
}

func TestPipelineBlocksWhenCadenceCounterDown(t *testing.T) {
	env := newPipelineEnv()
	env.counter.incErr = errors.New("redis down")

	d, err := env.pipeline.Decide(context.Background(), proposal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockDataUnavailable {
		t.Fatalf("expected DATA_UNAVAILABLE, got %+v", d)
	}
}

func TestPipelineStoreFailureReleasesCadenceSlot(t *testing.T) {
	env := newPipelineEnv()
	env.decisions.failErr = errors.New("insert failed")

	if _, err := env.pipeline.Decide(context.Background(), proposal()); err == nil {
		t.Fatalf("expected store failure to surface")
	}
	if n, _ := env.counter.AdmittedToday(context.Background(), "2024-10-10"); n != 0 {
		t.Fatalf("failed persist must not hold a cadence slot, got %d", n)
	}
}

func TestPipelineBlocksOnSizerFailure(t *testing.T) {
	env := newPipelineEnv()
	env.pipeline.sizer = fixedSizer{err: errors.New("sizing service down")}

	d, err := env.pipeline.Decide(context.Background(), proposal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Executed || d.BlockedReason != models.BlockDataUnavailable {
		t.Fatalf("expected DATA_UNAVAILABLE, got %+v", d)
	}
}

func TestPipelineAssetBusy(t *testing.T) {
	env := newPipelineEnv()
	if ok, _ := env.locker.TryLock(context.Background(), "BTC-USD", time.Second); !ok {
		t.Fatalf("setup lock failed")
	}

	if _, err := env.pipeline.Decide(context.Background(), proposal()); !errors.Is(err, ErrAssetBusy) {
		t.Fatalf("expected ErrAssetBusy, got %v", err)
	}
}

func TestPipelineReleasesLock(t *testing.T) {
	env := newPipelineEnv()

	if _, err := env.pipeline.Decide(context.Background(), proposal()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := env.locker.TryLock(context.Background(), "BTC-USD", time.Second); !ok {
		t.Fatalf("asset lock not released after decision")
	}
}

func TestHaltServiceSuspendsPlansOnTransition(t *testing.T) {
	env := newPipelineEnv()
	env.perf.snap.ErrorCounts = map[string]int{"FEED_TIMEOUT": 5}

	state, err := env.halt.Evaluate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltSoft {
		t.Fatalf("expected SOFT_HALT, got %v", state.Level)
	}
	if !env.plans.suspended {
		t.Fatalf("expected plan queue suspended")
	}
	if len(env.publisher.halts) != 1 {
		t.Fatalf("expected halt transition published")
	}
}

func TestHaltServiceClearResumesPlans(t *testing.T) {
	env := newPipelineEnv()
	env.haltStore.state = &models.HaltState{Level: models.HaltHard, InversionStreak: 2}
	env.plans.suspended = true

	state, err := env.halt.Clear(context.Background(), time.Now(), "risk-officer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Level != models.HaltNone {
		t.Fatalf("expected NONE, got %v", state.Level)
	}
	if env.plans.suspended {
		t.Fatalf("expected plan queue resumed")
	}
}
