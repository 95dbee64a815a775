package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingDispatcher struct {
	plans []*ExecutionPlan
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, plan *ExecutionPlan) error {
	if d.err != nil {
		return d.err
	}
	d.plans = append(d.plans, plan)
	return nil
}

func TestExecutionPlanJobDispatchesPlan(t *testing.T) {
	disp := &recordingDispatcher{}
	job := NewExecutionPlanJob(disp, nopMetrics{}, testLogger())

	if job.Type() != PlanMessageType {
		t.Fatalf("job type = %q, want %q", job.Type(), PlanMessageType)
	}

	plan := &ExecutionPlan{
		TradeID:    "t-1",
		Asset:      "BTC-USD",
		Direction:  "UP",
		Size:       0.5,
		EntryPrice: 43000,
		Slippage:   0.0025,
		CreatedAt:  time.Now(),
	}
	if err := job.Handle(context.Background(), plan); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(disp.plans) != 1 || disp.plans[0].TradeID != "t-1" {
		t.Fatalf("dispatched plans = %+v, want one with trade id t-1", disp.plans)
	}
}

func TestExecutionPlanJobParsesMapPayload(t *testing.T) {
	disp := &recordingDispatcher{}
	job := NewExecutionPlanJob(disp, nopMetrics{}, testLogger())

	// Redis queue payloads come back as generic maps after JSON decoding.
	payload := map[string]interface{}{
		"trade_id":    "t-2",
		"asset":       "ETH-USD",
		"direction":   "DOWN",
		"size":        1.25,
		"entry_price": 2400.0,
		"slippage":    0.001,
	}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(disp.plans) != 1 {
		t.Fatalf("expected one dispatched plan, got %d", len(disp.plans))
	}
	got := disp.plans[0]
	if got.TradeID != "t-2" || got.Asset != "ETH-USD" || got.Size != 1.25 {
		t.Fatalf("parsed plan = %+v", got)
	}
}

func TestExecutionPlanJobDispatchErrorPropagates(t *testing.T) {
	boom := errors.New("executor unreachable")
	job := NewExecutionPlanJob(&recordingDispatcher{err: boom}, nopMetrics{}, testLogger())

	err := job.Handle(context.Background(), &ExecutionPlan{TradeID: "t-3", Asset: "BTC-USD"})
	if !errors.Is(err, boom) {
		t.Fatalf("Handle error = %v, want wrapped %v", err, boom)
	}
}

func TestExecutionPlanJobRejectsIncompletePlan(t *testing.T) {
	disp := &recordingDispatcher{}
	job := NewExecutionPlanJob(disp, nopMetrics{}, testLogger())

	if err := job.Handle(context.Background(), &ExecutionPlan{Asset: "BTC-USD"}); err == nil {
		t.Fatal("expected error for plan without trade id")
	}
	if err := job.Handle(context.Background(), "not a plan"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if len(disp.plans) != 0 {
		t.Fatalf("nothing should have been dispatched, got %d", len(disp.plans))
	}
}
