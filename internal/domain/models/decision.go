package models

import "time"

// BlockReason classifies why a proposal was not admitted. Every blocked
// decision carries exactly one reason; there are no silent drops.
type BlockReason string

const (
	BlockNone                   BlockReason = ""
	BlockHaltActiveSoft         BlockReason = "HALT_ACTIVE_SOFT"
	BlockHaltActiveHard         BlockReason = "HALT_ACTIVE_HARD"
	BlockCalibrationUnavailable BlockReason = "CALIBRATION_UNAVAILABLE"
	BlockThresholdNotMet        BlockReason = "THRESHOLD_NOT_MET"
	BlockDataUnavailable        BlockReason = "DATA_UNAVAILABLE"
)

// NoveltyComponents is the per-decision novelty breakdown, stored for
// explainability. Component maxima are 0.4 + 0.3 + 0.3, so Total never
// exceeds 1.0.
type NoveltyComponents struct {
	RegimeShift        float64 `json:"regime_shift"`
	RegimeShiftReason  string  `json:"regime_shift_reason"`
	AssetNovelty       float64 `json:"asset_novelty"`
	AssetNoveltyReason string  `json:"asset_novelty_reason"`
	Disagreement       float64 `json:"disagreement"`
	DisagreementReason string  `json:"disagreement_reason"`
}

// Total returns the novelty score: the plain sum of the three components.
func (n NoveltyComponents) Total() float64 {
	return n.RegimeShift + n.AssetNovelty + n.Disagreement
}

// AdmissionDecision is the append-only outcome of one proposal. A rejected
// proposal is never mutated into an accepted one.
type AdmissionDecision struct {
	TradeID              string            `json:"trade_id"`
	Asset                string            `json:"asset"`
	Instrument           string            `json:"instrument"`
	Direction            Direction         `json:"direction"`
	Executed             bool              `json:"executed"`
	BlockedReason        BlockReason       `json:"blocked_reason,omitempty"`
	BlockedDetail        string            `json:"blocked_detail,omitempty"`
	RawConfidence        float64           `json:"raw_confidence"`
	CalibratedConfidence float64           `json:"calibrated_confidence"`
	EffectiveThreshold   float64           `json:"effective_threshold"`
	PositionSize         float64           `json:"position_size"`
	InfoGain             float64           `json:"info_gain"`
	Novelty              NoveltyComponents `json:"novelty"`
	NoveltyScore         float64           `json:"novelty_score"`
	Slippage             float64           `json:"slippage"`
	SlippageRule         string            `json:"slippage_rule,omitempty"`
	GateKey              string            `json:"gate_key,omitempty"`
	ForecastID           string            `json:"forecast_id,omitempty"`
	DecidedAt            time.Time         `json:"decided_at"`
}
