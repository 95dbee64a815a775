package models

import "time"

// Direction is the forecast direction of a candidate trade.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Opposite returns the inverse direction, used by signal-disagreement scoring.
func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

// TradeProposal is a candidate paper trade produced by the upstream signal
// generator. Immutable once submitted to the admission pipeline.
type TradeProposal struct {
	Asset         string
	Instrument    string
	Direction     Direction
	RawConfidence float64
	ForecastType  string
	Regime        string
	EntryPrice    float64
	BaseSize      float64
	ForecastID    string
	SubmittedAt   time.Time
}
