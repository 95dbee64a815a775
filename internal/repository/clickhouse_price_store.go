package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
)

// ClickHousePriceStore ingests ticks from the market stream and serves the
// slippage model's daily-close window and liquidity tiers.
type ClickHousePriceStore struct {
	db *sql.DB
}

func NewClickHousePriceStore(db *sql.DB) *ClickHousePriceStore {
	return &ClickHousePriceStore{db: db}
}

func (s *ClickHousePriceStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHousePriceStore) Store(ctx context.Context, t *models.PriceTick) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO price_ticks (ts, asset, price, volume) VALUES (?, ?, ?, ?)",
		t.Timestamp, t.Asset, t.Price, t.Volume)
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}
	return nil
}

func (s *ClickHousePriceStore) StoreBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, t := range ticks[start:end] {
			if t == nil || t.Asset == "" || t.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, t.Timestamp, t.Asset, t.Price, t.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO price_ticks (ts, asset, price, volume) VALUES %s", strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert tick batch: %w", err)
		}
	}
	return nil
}

// DailyCloses returns up to n most recent daily closes, oldest first.
func (s *ClickHousePriceStore) DailyCloses(ctx context.Context, asset string, n int) ([]float64, error) {
	q := `SELECT close FROM (
		SELECT toDate(ts) AS day, argMax(price, ts) AS close
		FROM price_ticks WHERE asset = ?
		GROUP BY day ORDER BY day DESC LIMIT ?
	) ORDER BY day ASC`
	rows, err := s.db.QueryContext(ctx, q, asset, n)
	if err != nil {
		return nil, fmt.Errorf("query daily closes: %w", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

func (s *ClickHousePriceStore) LiquidityTier(ctx context.Context, asset string) (models.LiquidityTier, error) {
	var tier string
	err := s.db.QueryRowContext(ctx,
		"SELECT tier FROM asset_liquidity FINAL WHERE asset = ? LIMIT 1", asset).Scan(&tier)
	if err == sql.ErrNoRows {
		return models.LiquidityTierUnknown, nil
	}
	if err != nil {
		return models.LiquidityTierUnknown, fmt.Errorf("query liquidity tier: %w", err)
	}
	return models.LiquidityTier(tier), nil
}

func (s *ClickHousePriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHousePriceStore) Close() error {
	return nil // Managed by pkg
}

var (
	_ repository.TickStorage  = (*ClickHousePriceStore)(nil)
	_ repository.PriceHistory = (*ClickHousePriceStore)(nil)
)
