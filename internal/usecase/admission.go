package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	domsvc "TradeGate/internal/domain/service"
	"TradeGate/internal/services/gate"
	"TradeGate/pkg/config"
	"TradeGate/pkg/logger"
	"TradeGate/pkg/util"
)

// ErrAssetBusy means another proposal for the same asset is mid-decision.
// The caller may resubmit on the next cycle; the gate never retries itself.
var ErrAssetBusy = errors.New("asset admission in progress")

// PlanMessageType is the queue message type for admitted execution plans.
const PlanMessageType = "execution_plan"

// ExecutionPlan is the payload enqueued for each admitted trade.
type ExecutionPlan struct {
	TradeID    string           `json:"trade_id"`
	Asset      string           `json:"asset"`
	Instrument string           `json:"instrument"`
	Direction  models.Direction `json:"direction"`
	Size       float64          `json:"size"`
	EntryPrice float64          `json:"entry_price"`
	Slippage   float64          `json:"slippage"`
	CreatedAt  time.Time        `json:"created_at"`
}

// AdmissionPipeline runs a proposal through halt check, calibration,
// threshold, novelty, sizing and slippage, then persists and publishes the
// decision. Per-proposal failures become blocked decisions; only an
// unreachable halt store or calibration registry aborts.
type AdmissionPipeline struct {
	halt       *HaltService
	calibrator *gate.ConfidenceCalibrator
	threshold  *gate.CadenceThresholdAdjuster
	novelty    *gate.NoveltyScorer
	slippage   *gate.SlippageModel
	sizer      domsvc.PositionSizer

	decisions drepo.DecisionStore
	counter   drepo.CadenceCounter
	locks     drepo.Locker
	publisher drepo.EventPublisher
	plans     PlanQueue
	metrics   drepo.Metrics
	log       *logger.Logger

	lockTTL time.Duration
}

func NewAdmissionPipeline(
	cfg *config.Config,
	halt *HaltService,
	calibrator *gate.ConfidenceCalibrator,
	threshold *gate.CadenceThresholdAdjuster,
	novelty *gate.NoveltyScorer,
	slippage *gate.SlippageModel,
	sizer domsvc.PositionSizer,
	decisions drepo.DecisionStore,
	counter drepo.CadenceCounter,
	locks drepo.Locker,
	publisher drepo.EventPublisher,
	plans PlanQueue,
	metrics drepo.Metrics,
	log *logger.Logger,
) *AdmissionPipeline {
	return &AdmissionPipeline{
		halt:       halt,
		calibrator: calibrator,
		threshold:  threshold,
		novelty:    novelty,
		slippage:   slippage,
		sizer:      sizer,
		decisions:  decisions,
		counter:    counter,
		locks:      locks,
		publisher:  publisher,
		plans:      plans,
		metrics:    metrics,
		log:        log,
		lockTTL:    cfg.Gate.AssetLockTTL,
	}
}

// Decide evaluates one proposal and returns the persisted decision.
func (p *AdmissionPipeline) Decide(ctx context.Context, proposal *models.TradeProposal) (*models.AdmissionDecision, error) {
	if proposal == nil {
		return nil, fmt.Errorf("proposal is nil")
	}
	start := time.Now()
	now := start
	if !proposal.SubmittedAt.IsZero() {
		now = proposal.SubmittedAt
	}

	level, state, err := p.halt.Effective(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("halt check: %w", err)
	}
	if level.Blocks() {
		reason := models.BlockHaltActiveSoft
		detail := state.Reason
		if level == models.HaltHard {
			reason = models.BlockHaltActiveHard
		} else if remaining := state.SoftHaltUntil.Sub(now); remaining > 0 {
			detail = fmt.Sprintf("%s; %s remaining", state.Reason, remaining.Round(time.Second))
		}
		return p.finish(ctx, p.blocked(proposal, now, reason, detail), start)
	}

	ok, err := p.locks.TryLock(ctx, proposal.Asset, p.lockTTL)
	if err != nil {
		return p.finish(ctx, p.blocked(proposal, now, models.BlockDataUnavailable, "asset lock unavailable"), start)
	}
	if !ok {
		return nil, ErrAssetBusy
	}
	defer func() {
		if err := p.locks.Unlock(context.WithoutCancel(ctx), proposal.Asset); err != nil {
			p.log.Warn("release asset lock", logger.String("asset", proposal.Asset), logger.Error(err))
		}
	}()

	cal, err := p.calibrator.Calibrate(ctx, proposal.ForecastType, proposal.Regime, proposal.RawConfidence)
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	if !cal.GateFound {
		d := p.blocked(proposal, now, models.BlockCalibrationUnavailable,
			fmt.Sprintf("no calibration gate for %s", cal.GateKey))
		d.GateKey = cal.GateKey
		return p.finish(ctx, d, start)
	}

	// Reserve the admission slot before reading the threshold. The atomic
	// increment is the serialization point for the day count: two concurrent
	// proposals cannot both compute a threshold from the same stale count.
	// Non-admitted outcomes release the slot again.
	day := util.DayKey(now)
	reserved, err := p.counter.Increment(ctx, day)
	if err != nil {
		p.metrics.RecordError("cadence_reserve")
		return p.finish(ctx, p.blocked(proposal, now, models.BlockDataUnavailable, "cadence counter unavailable"), start)
	}
	release := func() {
		if _, err := p.counter.Decrement(context.WithoutCancel(ctx), day); err != nil {
			// A failed release leaves the count high, which only tightens
			// the threshold.
			p.metrics.RecordError("cadence_release")
			p.log.Error("release cadence slot", logger.String("day", day), logger.Error(err))
		}
	}

	threshold, err := p.threshold.ThresholdForCount(ctx, reserved-1, now)
	if err != nil {
		release()
		return p.finish(ctx, p.blocked(proposal, now, models.BlockDataUnavailable, err.Error()), start)
	}
	if cal.Calibrated < threshold.Value {
		release()
		d := p.blocked(proposal, now, models.BlockThresholdNotMet,
			fmt.Sprintf("calibrated %.4f below threshold %.4f", cal.Calibrated, threshold.Value))
		d.CalibratedConfidence = cal.Calibrated
		d.EffectiveThreshold = threshold.Value
		d.GateKey = cal.GateKey
		return p.finish(ctx, d, start)
	}

	novelty, err := p.novelty.Score(ctx, proposal, now)
	if err != nil {
		release()
		return p.finish(ctx, p.blocked(proposal, now, models.BlockDataUnavailable, err.Error()), start)
	}

	size, infoGain, err := p.sizer.Size(ctx, proposal.BaseSize, cal.Calibrated, novelty.Total())
	if err != nil {
		release()
		return p.finish(ctx, p.blocked(proposal, now, models.BlockDataUnavailable, err.Error()), start)
	}

	slip := p.slippage.Compute(ctx, proposal.Asset)

	d := &models.AdmissionDecision{
		TradeID:              uuid.NewString(),
		Asset:                proposal.Asset,
		Instrument:           proposal.Instrument,
		Direction:            proposal.Direction,
		Executed:             true,
		RawConfidence:        proposal.RawConfidence,
		CalibratedConfidence: cal.Calibrated,
		EffectiveThreshold:   threshold.Value,
		PositionSize:         size,
		InfoGain:             infoGain,
		Novelty:              novelty,
		NoveltyScore:         novelty.Total(),
		Slippage:             slip.Effective,
		SlippageRule:         slip.Rule,
		GateKey:              cal.GateKey,
		ForecastID:           proposal.ForecastID,
		DecidedAt:            now,
	}

	if err := p.decisions.Store(ctx, d); err != nil {
		release()
		p.metrics.RecordError("store_decision")
		return nil, fmt.Errorf("store decision: %w", err)
	}

	p.enqueuePlan(ctx, d, proposal)
	p.publish(ctx, d)
	p.metrics.RecordDecision(d.Asset, true, "")
	p.metrics.RecordThreshold(threshold.Value)
	p.metrics.RecordLatency("admission", time.Since(start).Seconds())

	p.log.Info("trade admitted",
		logger.String("trade_id", d.TradeID),
		logger.String("asset", d.Asset),
		logger.Any("confidence", d.CalibratedConfidence),
		logger.Any("size", d.PositionSize))

	return d, nil
}

func (p *AdmissionPipeline) blocked(proposal *models.TradeProposal, now time.Time, reason models.BlockReason, detail string) *models.AdmissionDecision {
	return &models.AdmissionDecision{
		Asset:         proposal.Asset,
		Instrument:    proposal.Instrument,
		Direction:     proposal.Direction,
		Executed:      false,
		BlockedReason: reason,
		BlockedDetail: detail,
		RawConfidence: proposal.RawConfidence,
		ForecastID:    proposal.ForecastID,
		DecidedAt:     now,
	}
}

// finish persists and publishes a blocked decision. Blocked decisions go
// through the same audit path as admitted ones.
func (p *AdmissionPipeline) finish(ctx context.Context, d *models.AdmissionDecision, start time.Time) (*models.AdmissionDecision, error) {
	if err := p.decisions.Store(ctx, d); err != nil {
		p.metrics.RecordError("store_decision")
		return nil, fmt.Errorf("store decision: %w", err)
	}
	p.publish(ctx, d)
	p.metrics.RecordDecision(d.Asset, false, string(d.BlockedReason))
	p.metrics.RecordLatency("admission", time.Since(start).Seconds())

	p.log.Info("trade blocked",
		logger.String("asset", d.Asset),
		logger.String("reason", string(d.BlockedReason)),
		logger.String("detail", d.BlockedDetail))

	return d, nil
}

func (p *AdmissionPipeline) enqueuePlan(ctx context.Context, d *models.AdmissionDecision, proposal *models.TradeProposal) {
	plan := ExecutionPlan{
		TradeID:    d.TradeID,
		Asset:      d.Asset,
		Instrument: d.Instrument,
		Direction:  d.Direction,
		Size:       d.PositionSize,
		EntryPrice: proposal.EntryPrice,
		Slippage:   d.Slippage,
		CreatedAt:  d.DecidedAt,
	}
	if err := p.plans.Enqueue(ctx, PlanMessageType, plan); err != nil {
		p.metrics.RecordError("enqueue_plan")
		p.log.Error("enqueue execution plan", logger.String("trade_id", d.TradeID), logger.Error(err))
	}
}

func (p *AdmissionPipeline) publish(ctx context.Context, d *models.AdmissionDecision) {
	if err := p.publisher.PublishDecision(ctx, d); err != nil {
		p.metrics.RecordError("publish_decision")
		p.log.Error("publish decision", logger.Error(err))
	}
}
