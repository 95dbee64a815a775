package usecase

import (
	"context"
	"time"

	"TradeGate/internal/services/gate"
)

// ThresholdService exposes today's effective threshold with its audit fields.
type ThresholdService struct {
	adjuster *gate.CadenceThresholdAdjuster
}

func NewThresholdService(adjuster *gate.CadenceThresholdAdjuster) *ThresholdService {
	return &ThresholdService{adjuster: adjuster}
}

func (s *ThresholdService) Today(ctx context.Context) (gate.Threshold, error) {
	return s.adjuster.EffectiveThreshold(ctx, time.Now())
}
