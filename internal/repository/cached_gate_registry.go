package repository

import (
	"context"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/cache"
)

const gateCacheTTL = 5 * time.Minute

// CachedGateRegistry fronts the gate registry with a two-level cache. Gate
// rows change only when the calibration learner publishes, so a short TTL
// keeps every admission from hitting ClickHouse.
type CachedGateRegistry struct {
	next  repository.GateRegistry
	cache *cache.LayeredCache
}

func NewCachedGateRegistry(next repository.GateRegistry, layered *cache.LayeredCache) *CachedGateRegistry {
	return &CachedGateRegistry{next: next, cache: layered}
}

func (r *CachedGateRegistry) Lookup(ctx context.Context, forecastType, regime string) (*models.CalibrationGate, error) {
	key := cache.GenerateKeyWithParams("gate", forecastType, regime)

	var cached models.CalibrationGate
	if err := r.cache.Get(ctx, key, &cached); err == nil && cached.ForecastType != "" {
		return &cached, nil
	}

	g, err := r.next.Lookup(ctx, forecastType, regime)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, g, gateCacheTTL)
	return g, nil
}

// List always reads through; it serves the operator API, not the hot path.
func (r *CachedGateRegistry) List(ctx context.Context) ([]*models.CalibrationGate, error) {
	return r.next.List(ctx)
}

var _ repository.GateRegistry = (*CachedGateRegistry)(nil)
