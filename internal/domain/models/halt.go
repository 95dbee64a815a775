package models

import "time"

// HaltLevel is the epistemic halt severity.
type HaltLevel string

const (
	HaltNone HaltLevel = "NONE"
	HaltSoft HaltLevel = "SOFT_HALT"
	HaltHard HaltLevel = "HARD_HALT"
)

// Blocks reports whether the level suppresses trade admission.
func (l HaltLevel) Blocks() bool {
	return l == HaltSoft || l == HaltHard
}

// HaltState is the controller's persisted state. Besides the current level it
// carries the streak counters and the previous snapshot values the next
// evaluation compares against.
type HaltState struct {
	Level         HaltLevel `json:"level"`
	Reason        string    `json:"reason"`
	EnteredAt     time.Time `json:"entered_at"`
	SoftHaltUntil time.Time `json:"soft_halt_until"`

	InversionStreak int `json:"inversion_streak"`
	HitRateStreak   int `json:"hit_rate_streak"`
	BrierStreak     int `json:"brier_streak"`

	LastHitRate     float64 `json:"last_hit_rate"`
	LastBrier       float64 `json:"last_brier"`
	LastSnapshotDay string  `json:"last_snapshot_day"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Effective resolves the state to the level in force at the given instant.
// A soft halt whose timer has elapsed reads as NONE; a hard halt is sticky
// until cleared by an external attestation.
func (s HaltState) Effective(now time.Time) HaltLevel {
	if s.Level == HaltSoft && !now.Before(s.SoftHaltUntil) {
		return HaltNone
	}
	return s.Level
}

// HaltTransition is one audited level change, appended on every transition
// including clears.
type HaltTransition struct {
	From       HaltLevel `json:"from"`
	To         HaltLevel `json:"to"`
	Reason     string    `json:"reason"`
	ClearedBy  string    `json:"cleared_by,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DailyPerformanceSnapshot is the per-day aggregate the halt controller
// evaluates. Produced by the settlement job from settled paper trades.
type DailyPerformanceSnapshot struct {
	Day                    string         `json:"day"`
	TradeCount             int            `json:"trade_count"`
	HitRate                float64        `json:"hit_rate"`
	BrierScore             float64        `json:"brier_score"`
	HighConfidenceCount    int            `json:"high_confidence_count"`
	HighConfidenceAccuracy float64        `json:"high_confidence_accuracy"`
	ErrorCounts            map[string]int `json:"error_counts,omitempty"`
	GeneratedAt            time.Time      `json:"generated_at"`
}
