package gate

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	domsvc "TradeGate/internal/domain/service"
	"TradeGate/pkg/config"
)

// EpistemicHaltController is the two-tier circuit breaker. It persists its
// state through a HaltStore and reads rolling metrics from the performance
// feed. HARD_HALT has no internal exit path; only Clear leaves it.
type EpistemicHaltController struct {
	store repository.HaltStore
	perf  domsvc.PerformanceFeed

	highConfLevel     float64
	inversionAccuracy float64
	inversionDays     int
	declineStreak     int
	repeatedErrors    int
	softDuration      time.Duration
}

func NewEpistemicHaltController(cfg *config.Config, store repository.HaltStore, perf domsvc.PerformanceFeed) *EpistemicHaltController {
	return &EpistemicHaltController{
		store:             store,
		perf:              perf,
		highConfLevel:     cfg.Gate.HighConfLevel,
		inversionAccuracy: cfg.Gate.InversionAccuracy,
		inversionDays:     cfg.Gate.InversionDays,
		declineStreak:     cfg.Gate.DeclineStreak,
		repeatedErrors:    cfg.Gate.RepeatedErrors,
		softDuration:      cfg.Gate.SoftHaltDuration,
	}
}

// Current loads the persisted state, falling back to a fresh NONE state when
// none has been written yet.
func (c *EpistemicHaltController) Current(ctx context.Context) (*models.HaltState, error) {
	s, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load halt state: %w", err)
	}
	if s == nil {
		s = &models.HaltState{Level: models.HaltNone}
	}
	return s, nil
}

// Evaluate runs one evaluation cycle against the latest daily snapshot.
// It returns the resulting state and, when the effective level changed, the
// transition record. Re-evaluating against the same snapshot day leaves the
// state unchanged.
func (c *EpistemicHaltController) Evaluate(ctx context.Context, now time.Time) (*models.HaltState, *models.HaltTransition, error) {
	prior, err := c.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Sticky: nothing inside the controller exits HARD_HALT.
	if prior.Level == models.HaltHard {
		prior.EvaluatedAt = now
		if err := c.store.Save(ctx, prior); err != nil {
			return nil, nil, fmt.Errorf("save halt state: %w", err)
		}
		return prior, nil, nil
	}

	// An unexpired soft halt holds; the timer decides, not the metrics.
	if prior.Level == models.HaltSoft && now.Before(prior.SoftHaltUntil) {
		prior.EvaluatedAt = now
		if err := c.store.Save(ctx, prior); err != nil {
			return nil, nil, fmt.Errorf("save halt state: %w", err)
		}
		return prior, nil, nil
	}

	snap, err := c.perf.Latest(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load performance snapshot: %w", err)
	}

	next := *prior
	next.EvaluatedAt = now

	if snap != nil && snap.Day != prior.LastSnapshotDay {
		c.advanceStreaks(&next, snap)
	}

	from := prior.Effective(now)
	to, reason := c.decide(&next, snap)

	if to != from {
		next.EnteredAt = now
		next.Reason = reason
		if to == models.HaltSoft {
			next.SoftHaltUntil = now.Add(c.softDuration)
		}
	}
	next.Level = to
	if to == models.HaltNone {
		next.Reason = ""
		next.SoftHaltUntil = time.Time{}
	}

	if err := c.store.Save(ctx, &next); err != nil {
		return nil, nil, fmt.Errorf("save halt state: %w", err)
	}

	if to == from {
		return &next, nil, nil
	}
	tr := &models.HaltTransition{From: from, To: to, Reason: reason, OccurredAt: now}
	if err := c.store.AppendTransition(ctx, tr); err != nil {
		return nil, nil, fmt.Errorf("append halt transition: %w", err)
	}
	return &next, tr, nil
}

// Clear applies an external attestation: the only exit from HARD_HALT.
// Streak counters reset so a stale inversion streak cannot re-trip the
// breaker on the next cycle.
func (c *EpistemicHaltController) Clear(ctx context.Context, now time.Time, clearedBy string) (*models.HaltState, *models.HaltTransition, error) {
	prior, err := c.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	from := prior.Effective(now)
	next := *prior
	next.Level = models.HaltNone
	next.Reason = ""
	next.SoftHaltUntil = time.Time{}
	next.InversionStreak = 0
	next.HitRateStreak = 0
	next.BrierStreak = 0
	next.EvaluatedAt = now

	if err := c.store.Save(ctx, &next); err != nil {
		return nil, nil, fmt.Errorf("save halt state: %w", err)
	}

	if from == models.HaltNone {
		return &next, nil, nil
	}
	tr := &models.HaltTransition{
		From:       from,
		To:         models.HaltNone,
		Reason:     "cleared by external attestation",
		ClearedBy:  clearedBy,
		OccurredAt: now,
	}
	if err := c.store.AppendTransition(ctx, tr); err != nil {
		return nil, nil, fmt.Errorf("append halt transition: %w", err)
	}
	return &next, tr, nil
}

// advanceStreaks folds one new snapshot day into the streak counters. The
// first snapshot ever seen has no prior to compare against, so the decline
// streaks stay at zero.
func (c *EpistemicHaltController) advanceStreaks(s *models.HaltState, snap *models.DailyPerformanceSnapshot) {
	if snap.HighConfidenceCount > 0 && snap.HighConfidenceAccuracy < c.inversionAccuracy {
		s.InversionStreak++
	} else {
		s.InversionStreak = 0
	}

	if s.LastSnapshotDay != "" {
		if snap.HitRate < s.LastHitRate {
			s.HitRateStreak++
		} else {
			s.HitRateStreak = 0
		}
		if snap.BrierScore > s.LastBrier {
			s.BrierStreak++
		} else {
			s.BrierStreak = 0
		}
	}

	s.LastHitRate = snap.HitRate
	s.LastBrier = snap.BrierScore
	s.LastSnapshotDay = snap.Day
}

func (c *EpistemicHaltController) decide(s *models.HaltState, snap *models.DailyPerformanceSnapshot) (models.HaltLevel, string) {
	if s.InversionStreak >= c.inversionDays {
		return models.HaltHard, fmt.Sprintf("high-confidence (>=%.2f) forecasts inverted for %d consecutive days", c.highConfLevel, s.InversionStreak)
	}
	if s.HitRateStreak >= c.declineStreak {
		return models.HaltSoft, fmt.Sprintf("hit rate declined %d consecutive days", s.HitRateStreak)
	}
	if s.BrierStreak >= c.declineStreak {
		return models.HaltSoft, fmt.Sprintf("brier score worsened %d consecutive days", s.BrierStreak)
	}
	if snap != nil {
		for kind, count := range snap.ErrorCounts {
			if count >= c.repeatedErrors {
				return models.HaltSoft, fmt.Sprintf("error %s recurred %d times in a day", kind, count)
			}
		}
	}
	return models.HaltNone, ""
}
