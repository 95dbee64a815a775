package gate

import (
	"context"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/internal/services/features"
	"TradeGate/pkg/config"
)

// SlippageResult is the slippage computation with its audit fields.
type SlippageResult struct {
	Effective     float64
	Volatility    float64
	VolMultiplier float64
	LiqMultiplier float64
	Tier          models.LiquidityTier
	Rule          string
}

// SlippageModel derives simulated execution slippage from trailing return
// volatility and the asset's liquidity tier. Missing history never fails the
// computation; documented conservative defaults apply instead.
type SlippageModel struct {
	prices repository.PriceHistory

	base       float64
	max        float64
	defaultVol float64
	days       int
}

func NewSlippageModel(cfg *config.Config, prices repository.PriceHistory) *SlippageModel {
	return &SlippageModel{
		prices:     prices,
		base:       cfg.Gate.BaseSlippage,
		max:        cfg.Gate.MaxSlippage,
		defaultVol: cfg.Gate.DefaultVolatility,
		days:       cfg.Gate.VolatilityDays,
	}
}

// Compute returns the clamped effective slippage for the asset. The rule
// label records which volatility band and liquidity tier applied.
func (m *SlippageModel) Compute(ctx context.Context, asset string) SlippageResult {
	vol := m.defaultVol
	closes, err := m.prices.DailyCloses(ctx, asset, m.days+1)
	if err == nil {
		if returns := features.DailyReturns(closes); len(returns) >= 2 {
			vol = features.StdDev(returns)
		}
	}

	volMult := 1.0
	volLabel := "NORMAL_VOLATILITY"
	switch {
	case vol > 0.04:
		volMult = 2.0
		volLabel = "HIGH_VOLATILITY"
	case vol > 0.025:
		volMult = 1.5
		volLabel = "ELEVATED_VOLATILITY"
	}

	tier, err := m.prices.LiquidityTier(ctx, asset)
	if err != nil || tier == "" {
		tier = models.LiquidityTierUnknown
	}
	liqMult := tier.Multiplier()

	effective := m.base * volMult * liqMult
	if effective < m.base {
		effective = m.base
	}
	if effective > m.max {
		effective = m.max
	}

	return SlippageResult{
		Effective:     effective,
		Volatility:    vol,
		VolMultiplier: volMult,
		LiqMultiplier: liqMult,
		Tier:          tier,
		Rule:          volLabel + "_" + string(tier),
	}
}
