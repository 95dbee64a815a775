package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
)

// TickProcessor writes price ticks to storage.
type TickProcessor struct {
	store   drepo.TickStorage
	metrics drepo.Metrics
	batchSz int
	batchTO time.Duration
}

// NewTickProcessor creates a new TickProcessor instance.
func NewTickProcessor(store drepo.TickStorage, metrics drepo.Metrics, batchSz int, batchTO time.Duration) *TickProcessor {
	return &TickProcessor{store: store, metrics: metrics, batchSz: batchSz, batchTO: batchTO}
}

// Process stores a single tick.
func (p *TickProcessor) Process(ctx context.Context, t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	if err := p.store.Store(ctx, t); err != nil {
		p.metrics.RecordError("process_tick")
		return fmt.Errorf("process tick: %w", err)
	}
	p.metrics.RecordLatency("tick_store", time.Since(start).Seconds())
	return nil
}

// ProcessBatch stores multiple ticks in a batch.
func (p *TickProcessor) ProcessBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	if err := p.store.StoreBatch(ctx, ticks); err != nil {
		p.metrics.RecordError("process_tick_batch")
		return fmt.Errorf("process tick batch: %w", err)
	}
	p.metrics.RecordLatency("tick_store_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *TickProcessor) Close() {
	if p.store != nil {
		_ = p.store.Close()
	}
}
