package analytics

import (
	"context"
	"fmt"

	domsvc "TradeGate/internal/domain/service"
	"TradeGate/pkg/config"
)

// HTTPPositionSizer asks the external risk service for a weighted size.
type HTTPPositionSizer struct{ base *HTTPServiceBase }

func NewHTTPPositionSizer(cfg *config.Config) *HTTPPositionSizer {
	return &HTTPPositionSizer{base: NewHTTPServiceBase(cfg)}
}

type sizeRequest struct {
	BaseSize   float64 `json:"base_size"`
	Confidence float64 `json:"confidence"`
	Novelty    float64 `json:"novelty"`
}

type sizeResponse struct {
	WeightedSize float64 `json:"weighted_size"`
	InfoGain     float64 `json:"info_gain"`
}

func (s *HTTPPositionSizer) Size(ctx context.Context, base, calibrated, novelty float64) (float64, float64, error) {
	var sr sizeResponse
	err := s.base.PostJSONWithRetry(ctx, "/risk/size", sizeRequest{
		BaseSize:   base,
		Confidence: calibrated,
		Novelty:    novelty,
	}, &sr, 3)
	if err != nil {
		return 0, 0, fmt.Errorf("post size: %w", err)
	}
	return sr.WeightedSize, sr.InfoGain, nil
}

var _ domsvc.PositionSizer = (*HTTPPositionSizer)(nil)
