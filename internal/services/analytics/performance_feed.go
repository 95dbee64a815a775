package analytics

import (
	"context"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	domsvc "TradeGate/internal/domain/service"
	"TradeGate/pkg/config"
)

// HTTPPerformanceFeed pulls the latest daily snapshot from the settlement service.
type HTTPPerformanceFeed struct{ base *HTTPServiceBase }

func NewHTTPPerformanceFeed(cfg *config.Config) *HTTPPerformanceFeed {
	return &HTTPPerformanceFeed{base: NewHTTPServiceBase(cfg)}
}

type performanceResponse struct {
	Day                    string         `json:"day"`
	TradeCount             int            `json:"trade_count"`
	HitRate                float64        `json:"hit_rate"`
	BrierScore             float64        `json:"brier_score"`
	HighConfidenceCount    int            `json:"high_confidence_count"`
	HighConfidenceAccuracy float64        `json:"high_confidence_accuracy"`
	ErrorCounts            map[string]int `json:"error_counts"`
}

func (f *HTTPPerformanceFeed) Latest(ctx context.Context) (*models.DailyPerformanceSnapshot, error) {
	var pr performanceResponse
	if err := f.base.GetJSON(ctx, "/performance/latest", &pr); err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	return &models.DailyPerformanceSnapshot{
		Day:                    pr.Day,
		TradeCount:             pr.TradeCount,
		HitRate:                pr.HitRate,
		BrierScore:             pr.BrierScore,
		HighConfidenceCount:    pr.HighConfidenceCount,
		HighConfidenceAccuracy: pr.HighConfidenceAccuracy,
		ErrorCounts:            pr.ErrorCounts,
		GeneratedAt:            time.Now(),
	}, nil
}

var _ domsvc.PerformanceFeed = (*HTTPPerformanceFeed)(nil)
