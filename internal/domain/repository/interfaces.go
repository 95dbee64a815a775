package repository

import (
	"context"
	"errors"
	"time"

	"TradeGate/internal/domain/models"
)

// ErrGateNotFound is returned by GateRegistry.Lookup when no calibration gate
// exists for the requested forecast-type and regime pair.
var ErrGateNotFound = errors.New("calibration gate not found")

// DecisionStore persists admission decisions. Append-only.
type DecisionStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, d *models.AdmissionDecision) error
	Query(ctx context.Context, f DecisionFilter) ([]*models.AdmissionDecision, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// DecisionFilter narrows decision queries.
type DecisionFilter struct {
	Asset    string
	Executed *bool
	From     time.Time
	To       time.Time
	Limit    int
}

// TradeHistory answers lookback questions about executed decisions, used by
// the novelty scorer.
type TradeHistory interface {
	// CountAssetTrades counts executed trades for the asset since the cutoff.
	CountAssetTrades(ctx context.Context, asset string, since time.Time) (int, error)
	// DirectionCounts returns executed trade counts per direction for the
	// asset since the cutoff.
	DirectionCounts(ctx context.Context, asset string, since time.Time) (map[models.Direction]int, error)
}

// GateRegistry reads learned calibration gates.
type GateRegistry interface {
	Lookup(ctx context.Context, forecastType, regime string) (*models.CalibrationGate, error)
	List(ctx context.Context) ([]*models.CalibrationGate, error)
}

// ExceptionStore manages same-day cadence exceptions.
type ExceptionStore interface {
	Store(ctx context.Context, e *models.CadenceException) error
	// ActiveFloor returns the lowest active exception floor at now, if any.
	ActiveFloor(ctx context.Context, now time.Time) (float64, bool, error)
}

// HaltStore persists the halt controller state and its transition audit.
type HaltStore interface {
	Load(ctx context.Context) (*models.HaltState, error)
	Save(ctx context.Context, s *models.HaltState) error
	AppendTransition(ctx context.Context, t *models.HaltTransition) error
}

// BeliefStateStore reads the market belief snapshots the regime-shift check
// compares against.
type BeliefStateStore interface {
	// LatestRegime returns the most recent recorded regime and its timestamp.
	LatestRegime(ctx context.Context) (string, time.Time, error)
	RecordRegime(ctx context.Context, regime string, at time.Time) error
}

// PerformanceStore reads and writes daily performance snapshots.
type PerformanceStore interface {
	Store(ctx context.Context, s *models.DailyPerformanceSnapshot) error
	Latest(ctx context.Context) (*models.DailyPerformanceSnapshot, error)
}

// PriceHistory serves the slippage model's volatility window and liquidity
// classification.
type PriceHistory interface {
	// DailyCloses returns up to n most recent daily close prices for the
	// asset, most recent last.
	DailyCloses(ctx context.Context, asset string, n int) ([]float64, error)
	LiquidityTier(ctx context.Context, asset string) (models.LiquidityTier, error)
}

// CadenceCounter tracks admitted trades per UTC day. The pipeline reserves a
// slot with Increment before reading the threshold and releases it with
// Decrement when the proposal is not admitted, so the increment is the
// serialization point for the day count.
type CadenceCounter interface {
	AdmittedToday(ctx context.Context, day string) (int, error)
	// Increment atomically bumps the day counter and returns the new value.
	Increment(ctx context.Context, day string) (int, error)
	// Decrement atomically releases one reserved slot.
	Decrement(ctx context.Context, day string) (int, error)
}

// Locker serializes admission per asset.
type Locker interface {
	// TryLock acquires the asset lock, returning false if already held.
	TryLock(ctx context.Context, asset string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, asset string) error
}

// EventPublisher emits decision and halt events to the bus.
type EventPublisher interface {
	PublishDecision(ctx context.Context, d *models.AdmissionDecision) error
	PublishHalt(ctx context.Context, t *models.HaltTransition) error
	Close() error
}

// MarketStream is the live price feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickStorage persists price ticks feeding the daily close aggregation.
type TickStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, t *models.PriceTick) error
	StoreBatch(ctx context.Context, ticks []*models.PriceTick) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records gate observability signals.
type Metrics interface {
	RecordDecision(asset string, executed bool, reason string)
	RecordHaltLevel(level string)
	RecordThreshold(value float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
