package usecase

import (
	"context"
	"sync"
	"time"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	"TradeGate/internal/services/gate"
	"TradeGate/pkg/config"
	"TradeGate/pkg/logger"
)

// PlanQueue is the execution-plan queue the halt service administratively
// suspends and resumes on transitions.
type PlanQueue interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
	Suspend()
	Resume()
}

// HaltService wraps the halt controller with its side effects: event
// publishing, plan-queue suspension and lazy re-evaluation when the last
// evaluation is stale.
type HaltService struct {
	controller *gate.EpistemicHaltController
	publisher  drepo.EventPublisher
	plans      PlanQueue
	metrics    drepo.Metrics
	log        *logger.Logger
	ttl        time.Duration

	mu sync.Mutex
}

func NewHaltService(
	cfg *config.Config,
	controller *gate.EpistemicHaltController,
	publisher drepo.EventPublisher,
	plans PlanQueue,
	metrics drepo.Metrics,
	log *logger.Logger,
) *HaltService {
	return &HaltService{
		controller: controller,
		publisher:  publisher,
		plans:      plans,
		metrics:    metrics,
		log:        log,
		ttl:        cfg.Gate.EvaluationTTL,
	}
}

// Current returns the persisted state without evaluating.
func (s *HaltService) Current(ctx context.Context) (*models.HaltState, error) {
	return s.controller.Current(ctx)
}

// Effective returns the halt level in force at now, re-evaluating first if
// the last evaluation is older than the staleness TTL.
func (s *HaltService) Effective(ctx context.Context, now time.Time) (models.HaltLevel, *models.HaltState, error) {
	state, err := s.controller.Current(ctx)
	if err != nil {
		return "", nil, err
	}
	if now.Sub(state.EvaluatedAt) > s.ttl {
		state, err = s.Evaluate(ctx, now)
		if err != nil {
			return "", nil, err
		}
	}
	return state.Effective(now), state, nil
}

// Evaluate runs one controller cycle and applies transition side effects.
func (s *HaltService) Evaluate(ctx context.Context, now time.Time) (*models.HaltState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, tr, err := s.controller.Evaluate(ctx, now)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordHaltLevel(string(state.Effective(now)))
	if tr != nil {
		s.applyTransition(ctx, tr)
	}
	return state, nil
}

// Clear applies an external attestation clear and resumes suspended plans.
func (s *HaltService) Clear(ctx context.Context, now time.Time, clearedBy string) (*models.HaltState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, tr, err := s.controller.Clear(ctx, now, clearedBy)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordHaltLevel(string(state.Level))
	if tr != nil {
		s.applyTransition(ctx, tr)
	}
	return state, nil
}

func (s *HaltService) applyTransition(ctx context.Context, tr *models.HaltTransition) {
	s.log.Warn("halt transition",
		logger.String("from", string(tr.From)),
		logger.String("to", string(tr.To)),
		logger.String("reason", tr.Reason))

	if tr.To.Blocks() {
		s.plans.Suspend()
	} else {
		s.plans.Resume()
	}

	if err := s.publisher.PublishHalt(ctx, tr); err != nil {
		s.metrics.RecordError("publish_halt")
		s.log.Error("publish halt transition", logger.Error(err))
	}
}
