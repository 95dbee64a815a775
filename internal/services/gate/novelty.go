package gate

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
)

const (
	assetNoveltyWindow = 7 * 24 * time.Hour
	disagreementWindow = 48 * time.Hour
)

// NoveltyScorer computes the three-component novelty score from committed
// decision history and belief-state snapshots. Pure given the same history.
type NoveltyScorer struct {
	beliefs repository.BeliefStateStore
	history repository.TradeHistory
}

func NewNoveltyScorer(beliefs repository.BeliefStateStore, history repository.TradeHistory) *NoveltyScorer {
	return &NoveltyScorer{beliefs: beliefs, history: history}
}

// Score returns the per-component breakdown. Component maxima are fixed
// (0.4 regime shift, 0.3 asset novelty, 0.3 disagreement) so the total stays
// within [0, 1].
func (s *NoveltyScorer) Score(ctx context.Context, p *models.TradeProposal, now time.Time) (models.NoveltyComponents, error) {
	var n models.NoveltyComponents

	prior, _, err := s.beliefs.LatestRegime(ctx)
	if err != nil {
		return n, fmt.Errorf("read belief state: %w", err)
	}
	switch {
	case prior == "":
		n.RegimeShift = 0.2
		n.RegimeShiftReason = "no prior regime snapshot"
	case prior != p.Regime:
		n.RegimeShift = 0.4
		n.RegimeShiftReason = fmt.Sprintf("regime shifted %s -> %s", prior, p.Regime)
	default:
		n.RegimeShiftReason = fmt.Sprintf("regime unchanged (%s)", p.Regime)
	}

	count, err := s.history.CountAssetTrades(ctx, p.Asset, now.Add(-assetNoveltyWindow))
	if err != nil {
		return n, fmt.Errorf("count asset trades: %w", err)
	}
	switch {
	case count == 0:
		n.AssetNovelty = 0.3
		n.AssetNoveltyReason = "no trades on asset in 7d"
	case count <= 2:
		n.AssetNovelty = 0.15
		n.AssetNoveltyReason = fmt.Sprintf("%d trades on asset in 7d", count)
	default:
		n.AssetNoveltyReason = fmt.Sprintf("asset well traded: %d in 7d", count)
	}

	dirs, err := s.history.DirectionCounts(ctx, p.Asset, now.Add(-disagreementWindow))
	if err != nil {
		return n, fmt.Errorf("count directions: %w", err)
	}
	same := dirs[p.Direction]
	opposite := dirs[p.Direction.Opposite()]
	switch {
	case opposite > same && same > 0:
		n.Disagreement = 0.3
		n.DisagreementReason = fmt.Sprintf("contrarian: %d opposite vs %d same in 48h", opposite, same)
	case same == 0 && opposite == 0:
		n.Disagreement = 0.15
		n.DisagreementReason = "no signals on asset in 48h"
	default:
		n.DisagreementReason = fmt.Sprintf("signals aligned: %d same vs %d opposite in 48h", same, opposite)
	}

	return n, nil
}
