package usecase

import (
	"context"
	"fmt"

	drepo "TradeGate/internal/domain/repository"
	"TradeGate/pkg/logger"
	"TradeGate/pkg/queue"
)

// PlanDispatcher hands an admitted execution plan to the downstream executor.
type PlanDispatcher interface {
	Dispatch(ctx context.Context, plan *ExecutionPlan) error
}

// ExecutionPlanJob consumes queued execution plans and dispatches them.
// Returning an error puts the message back through the queue retry path.
type ExecutionPlanJob struct {
	dispatcher PlanDispatcher
	metrics    drepo.Metrics
	log        *logger.Logger
}

func NewExecutionPlanJob(dispatcher PlanDispatcher, metrics drepo.Metrics, log *logger.Logger) *ExecutionPlanJob {
	return &ExecutionPlanJob{dispatcher: dispatcher, metrics: metrics, log: log}
}

func (j *ExecutionPlanJob) Name() string { return "execution_plan_dispatch" }

func (j *ExecutionPlanJob) Type() string { return PlanMessageType }

func (j *ExecutionPlanJob) Handle(ctx context.Context, payload interface{}) error {
	plan, err := queue.ParsePayload[ExecutionPlan](payload)
	if err != nil {
		return fmt.Errorf("parse execution plan: %w", err)
	}
	if plan.TradeID == "" || plan.Asset == "" {
		return fmt.Errorf("execution plan missing trade_id or asset")
	}

	if err := j.dispatcher.Dispatch(ctx, plan); err != nil {
		j.metrics.RecordError("dispatch_plan")
		return fmt.Errorf("dispatch plan %s: %w", plan.TradeID, err)
	}

	j.log.Info("execution plan dispatched",
		logger.String("trade_id", plan.TradeID),
		logger.String("asset", plan.Asset),
	)
	return nil
}

var _ queue.Job = (*ExecutionPlanJob)(nil)
