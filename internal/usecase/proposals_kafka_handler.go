package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	domrepo "TradeGate/internal/domain/repository"
	pkgkafka "TradeGate/pkg/kafka"
	"TradeGate/pkg/util"
)

// ProposalsKafkaHandler consumes trade proposals off the intake topic and
// runs them through the admission pipeline.
type ProposalsKafkaHandler struct {
	topic    string
	pipeline *AdmissionPipeline
	metrics  domrepo.Metrics
}

func NewProposalsKafkaHandler(topic string, pipeline *AdmissionPipeline, metrics domrepo.Metrics) *ProposalsKafkaHandler {
	return &ProposalsKafkaHandler{topic: topic, pipeline: pipeline, metrics: metrics}
}

func (h *ProposalsKafkaHandler) Topic() string { return h.topic }

// incoming message schema mirrors the HTTP proposal request
func (h *ProposalsKafkaHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Asset         string  `json:"asset"`
		Instrument    string  `json:"instrument"`
		Direction     string  `json:"direction"`
		RawConfidence float64 `json:"raw_confidence"`
		ForecastType  string  `json:"forecast_type"`
		Regime        string  `json:"regime"`
		EntryPrice    float64 `json:"entry_price"`
		BaseSize      float64 `json:"base_size"`
		ForecastID    string  `json:"forecast_id"`
		SubmittedAt   string  `json:"submitted_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Asset == "" || m.Direction == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("proposal missing asset or direction")
	}

	proposal := &models.TradeProposal{
		Asset:         m.Asset,
		Instrument:    m.Instrument,
		Direction:     models.Direction(m.Direction),
		RawConfidence: m.RawConfidence,
		ForecastType:  m.ForecastType,
		Regime:        m.Regime,
		EntryPrice:    m.EntryPrice,
		BaseSize:      m.BaseSize,
		ForecastID:    m.ForecastID,
		SubmittedAt:   util.ParseTimeDefault(m.SubmittedAt, time.Now()),
	}

	_, err := h.pipeline.Decide(ctx, proposal)
	if errors.Is(err, ErrAssetBusy) {
		// Retry path: the consumer redelivers with backoff, so a busy asset
		// is re-evaluated on the next attempt instead of being dropped.
		return err
	}
	return err
}

var _ pkgkafka.MessageHandler = (*ProposalsKafkaHandler)(nil)
