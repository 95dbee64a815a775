package analytics

import (
	"context"

	"TradeGate/internal/usecase"
	"TradeGate/pkg/config"
)

// HTTPPlanDispatcher forwards admitted execution plans to the paper-trading
// executor in the collaborator service.
type HTTPPlanDispatcher struct {
	*HTTPServiceBase
}

func NewHTTPPlanDispatcher(cfg *config.Config) *HTTPPlanDispatcher {
	return &HTTPPlanDispatcher{HTTPServiceBase: NewHTTPServiceBase(cfg)}
}

type dispatchResponse struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id"`
}

func (d *HTTPPlanDispatcher) Dispatch(ctx context.Context, plan *usecase.ExecutionPlan) error {
	var resp dispatchResponse
	return d.PostJSONWithRetry(ctx, "/execution/plans", plan, &resp, 3)
}

var _ usecase.PlanDispatcher = (*HTTPPlanDispatcher)(nil)
