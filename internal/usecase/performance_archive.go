package usecase

import (
	"context"

	"TradeGate/internal/domain/models"
	drepo "TradeGate/internal/domain/repository"
	domsvc "TradeGate/internal/domain/service"
	"TradeGate/pkg/logger"
)

// ArchivingPerformanceFeed wraps the collaborator performance feed with a
// ClickHouse archive. Fetched snapshots are persisted for audit, and when the
// collaborator is unreachable the last archived snapshot is served instead so
// halt evaluation keeps working on the most recent known data.
type ArchivingPerformanceFeed struct {
	feed  domsvc.PerformanceFeed
	store drepo.PerformanceStore
	log   *logger.Logger
}

func NewArchivingPerformanceFeed(feed domsvc.PerformanceFeed, store drepo.PerformanceStore, log *logger.Logger) *ArchivingPerformanceFeed {
	return &ArchivingPerformanceFeed{feed: feed, store: store, log: log}
}

func (a *ArchivingPerformanceFeed) Latest(ctx context.Context) (*models.DailyPerformanceSnapshot, error) {
	snap, err := a.feed.Latest(ctx)
	if err != nil {
		cached, cerr := a.store.Latest(ctx)
		if cerr == nil && cached != nil {
			a.log.Warn("performance feed unavailable, using archived snapshot",
				logger.String("day", cached.Day),
				logger.Error(err),
			)
			return cached, nil
		}
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	if serr := a.store.Store(ctx, snap); serr != nil {
		a.log.Warn("archive performance snapshot", logger.Error(serr))
	}
	return snap, nil
}

var _ domsvc.PerformanceFeed = (*ArchivingPerformanceFeed)(nil)
