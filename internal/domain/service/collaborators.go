package service

import (
	"context"

	"TradeGate/internal/domain/models"
)

// PositionSizer asks the external sizing service for a risk-weighted size.
type PositionSizer interface {
	// Size returns the weighted position size and the expected information
	// gain for the candidate trade.
	Size(ctx context.Context, base, calibrated, novelty float64) (weighted, infoGain float64, err error)
}

// PerformanceFeed serves the latest daily performance snapshot from the
// settlement service.
type PerformanceFeed interface {
	Latest(ctx context.Context) (*models.DailyPerformanceSnapshot, error)
}
