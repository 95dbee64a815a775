package models

// Requests for admission HTTP endpoints. Defined in domain for consistency and reuse.

type ProposalRequest struct {
	Asset         string  `json:"asset" validate:"required"`
	Instrument    string  `json:"instrument" default:"PERP"`
	Direction     string  `json:"direction" validate:"required,oneof=UP DOWN"`
	RawConfidence float64 `json:"raw_confidence" validate:"gte=0,lte=1"`
	ForecastType  string  `json:"forecast_type" validate:"required"`
	Regime        string  `json:"regime" validate:"required"`
	EntryPrice    float64 `json:"entry_price" validate:"gt=0"`
	BaseSize      float64 `json:"base_size" validate:"gt=0"`
	ForecastID    string  `json:"forecast_id"`
	SubmittedAt   string  `json:"submitted_at"`
}

type DecisionsRequest struct {
	Asset    string `query:"asset" json:"asset"`
	Executed string `query:"executed" json:"executed" default:"" validate:"omitempty,oneof=true false"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	From     string `query:"from" json:"from"`
	To       string `query:"to" json:"to"`
}

type ExceptionRequest struct {
	Floor    float64 `json:"floor" validate:"required,gt=0,lt=1"`
	Reason   string  `json:"reason" validate:"required"`
	IssuedBy string  `json:"issued_by" validate:"required"`
}

type HaltClearRequest struct {
	ClearedBy   string `json:"cleared_by" validate:"required"`
	Attestation string `json:"attestation" validate:"required"`
}

type BeliefRequest struct {
	Regime     string `json:"regime" validate:"required"`
	ObservedAt string `json:"observed_at"`
}
