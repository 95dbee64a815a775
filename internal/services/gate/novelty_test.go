package gate

import (
	"context"
	"testing"
	"time"

	"TradeGate/internal/domain/models"
)

func noveltyProposal(regime string, dir models.Direction) *models.TradeProposal {
	return &models.TradeProposal{Asset: "BTC-USD", Direction: dir, Regime: regime}
}

func TestNoveltyRegimeShift(t *testing.T) {
	s := NewNoveltyScorer(&fakeBeliefs{regime: "NEUTRAL"}, &fakeHistory{assetCount: 3, dirs: map[models.Direction]int{models.DirectionUp: 2}})

	n, err := s.Score(context.Background(), noveltyProposal("STRESS", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.RegimeShift != 0.4 {
		t.Fatalf("expected regime shift 0.4, got %v", n.RegimeShift)
	}
	if n.Total() != 0.4 {
		t.Fatalf("expected total 0.4, got %v", n.Total())
	}
}

func TestNoveltyNoPriorRegime(t *testing.T) {
	s := NewNoveltyScorer(&fakeBeliefs{}, &fakeHistory{assetCount: 3, dirs: map[models.Direction]int{models.DirectionUp: 2}})

	n, err := s.Score(context.Background(), noveltyProposal("STRESS", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.RegimeShift != 0.2 {
		t.Fatalf("expected exploratory 0.2, got %v", n.RegimeShift)
	}
}

func TestNoveltyUntradedAssetBalancedSignals(t *testing.T) {
	// Untraded in 7d, regime unchanged, two same vs two opposite in 48h:
	// only asset novelty contributes.
	s := NewNoveltyScorer(
		&fakeBeliefs{regime: "NEUTRAL"},
		&fakeHistory{assetCount: 0, dirs: map[models.Direction]int{models.DirectionUp: 2, models.DirectionDown: 2}},
	)

	n, err := s.Score(context.Background(), noveltyProposal("NEUTRAL", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.RegimeShift != 0 || n.AssetNovelty != 0.3 || n.Disagreement != 0 {
		t.Fatalf("unexpected breakdown: %+v", n)
	}
	if n.Total() != 0.3 {
		t.Fatalf("expected total 0.3, got %v", n.Total())
	}
}

func TestNoveltyContrarian(t *testing.T) {
	s := NewNoveltyScorer(
		&fakeBeliefs{regime: "NEUTRAL"},
		&fakeHistory{assetCount: 5, dirs: map[models.Direction]int{models.DirectionUp: 1, models.DirectionDown: 3}},
	)

	n, err := s.Score(context.Background(), noveltyProposal("NEUTRAL", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Disagreement != 0.3 {
		t.Fatalf("expected contrarian 0.3, got %v", n.Disagreement)
	}
}

func TestNoveltyNoSignals(t *testing.T) {
	s := NewNoveltyScorer(&fakeBeliefs{regime: "NEUTRAL"}, &fakeHistory{assetCount: 5})

	n, err := s.Score(context.Background(), noveltyProposal("NEUTRAL", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Disagreement != 0.15 {
		t.Fatalf("expected 0.15 with no 48h signals, got %v", n.Disagreement)
	}
}

func TestNoveltyBoundedByOne(t *testing.T) {
	// Every component at its maximum still sums to exactly 1.0.
	s := NewNoveltyScorer(
		&fakeBeliefs{regime: "NEUTRAL"},
		&fakeHistory{assetCount: 0, dirs: map[models.Direction]int{models.DirectionUp: 1, models.DirectionDown: 2}},
	)

	n, err := s.Score(context.Background(), noveltyProposal("STRESS", models.DirectionUp), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Total() != 1.0 {
		t.Fatalf("expected total 1.0, got %v", n.Total())
	}
}
