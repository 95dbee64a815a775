package gate

import (
	"context"
	"errors"
	"math"
	"testing"

	"TradeGate/internal/domain/models"
)

// closesWithVol builds a six-close series whose five daily returns alternate
// around zero with the given magnitude, so the return stddev equals vol.
func closesWithVol(vol float64) []float64 {
	closes := []float64{100}
	sign := 1.0
	for i := 0; i < 5; i++ {
		// mean of (+v, -v, +v, -v, +v) is v/5; close enough for band checks
		closes = append(closes, closes[len(closes)-1]*(1+sign*vol))
		sign = -sign
	}
	return closes
}

func TestSlippageHighVolTier3(t *testing.T) {
	m := NewSlippageModel(testConfig(), &fakePrices{closes: closesWithVol(0.05), tier: models.LiquidityTier3})

	got := m.Compute(context.Background(), "BTC-USD")
	if got.VolMultiplier != 2.0 || got.LiqMultiplier != 2.5 {
		t.Fatalf("unexpected multipliers: %+v", got)
	}
	if math.Abs(got.Effective-0.0025) > 1e-9 {
		t.Fatalf("expected 0.0025, got %v", got.Effective)
	}
	if got.Rule != "HIGH_VOLATILITY_TIER_3" {
		t.Fatalf("unexpected rule %s", got.Rule)
	}
}

func TestSlippageDefaultsOnMissingHistory(t *testing.T) {
	m := NewSlippageModel(testConfig(), &fakePrices{err: errors.New("no data")})

	got := m.Compute(context.Background(), "XYZ")
	if got.Volatility != 0.02 {
		t.Fatalf("expected default volatility, got %v", got.Volatility)
	}
	if got.Tier != models.LiquidityTierUnknown || got.LiqMultiplier != 2.0 {
		t.Fatalf("expected unknown tier default, got %+v", got)
	}
}

func TestSlippageClampedToBounds(t *testing.T) {
	cfg := testConfig()
	m := NewSlippageModel(cfg, &fakePrices{closes: closesWithVol(0.001), tier: models.LiquidityTier1})

	got := m.Compute(context.Background(), "BTC-USD")
	if got.Effective < cfg.Gate.BaseSlippage || got.Effective > cfg.Gate.MaxSlippage {
		t.Fatalf("slippage %v outside [%v, %v]", got.Effective, cfg.Gate.BaseSlippage, cfg.Gate.MaxSlippage)
	}
	if got.Effective != cfg.Gate.BaseSlippage {
		t.Fatalf("expected base slippage for calm tier-1 asset, got %v", got.Effective)
	}
}

func TestSlippageElevatedBand(t *testing.T) {
	m := NewSlippageModel(testConfig(), &fakePrices{closes: closesWithVol(0.03), tier: models.LiquidityTier2})

	got := m.Compute(context.Background(), "ETH-USD")
	if got.VolMultiplier != 1.5 {
		t.Fatalf("expected elevated multiplier, got %v", got.VolMultiplier)
	}
	if got.Rule != "ELEVATED_VOLATILITY_TIER_2" {
		t.Fatalf("unexpected rule %s", got.Rule)
	}
}
