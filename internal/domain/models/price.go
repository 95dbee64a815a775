package models

import "time"

// LiquidityTier buckets assets by execution depth. Unknown assets are
// penalized more than mid-tier ones.
type LiquidityTier string

const (
	LiquidityTier1       LiquidityTier = "TIER_1"
	LiquidityTier2       LiquidityTier = "TIER_2"
	LiquidityTier3       LiquidityTier = "TIER_3"
	LiquidityTierUnknown LiquidityTier = "UNKNOWN"
)

// Multiplier returns the slippage multiplier for the tier.
func (t LiquidityTier) Multiplier() float64 {
	switch t {
	case LiquidityTier1:
		return 1.0
	case LiquidityTier2:
		return 1.5
	case LiquidityTier3:
		return 2.5
	default:
		return 2.0
	}
}

// PriceTick is a single market price observation from the streaming feed.
type PriceTick struct {
	Asset     string    `json:"asset"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
