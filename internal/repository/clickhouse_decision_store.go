package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
)

// ClickHouseDecisionStore persists admission decisions and serves the
// lookback windows the novelty scorer reads.
type ClickHouseDecisionStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseDecisionStore(db *sql.DB) *ClickHouseDecisionStore {
	return &ClickHouseDecisionStore{db: db, table: "admission_decisions"}
}

func (s *ClickHouseDecisionStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseDecisionStore) Store(ctx context.Context, d *models.AdmissionDecision) error {
	q := fmt.Sprintf(`INSERT INTO %s (
		trade_id, asset, instrument, direction, executed, blocked_reason, blocked_detail,
		raw_confidence, calibrated_confidence, effective_threshold, position_size, info_gain,
		regime_shift, regime_shift_reason, asset_novelty, asset_novelty_reason,
		disagreement, disagreement_reason, novelty_score, slippage, slippage_rule,
		gate_key, forecast_id, decided_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	executed := uint8(0)
	if d.Executed {
		executed = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		d.TradeID, d.Asset, d.Instrument, string(d.Direction), executed,
		string(d.BlockedReason), d.BlockedDetail,
		d.RawConfidence, d.CalibratedConfidence, d.EffectiveThreshold,
		d.PositionSize, d.InfoGain,
		d.Novelty.RegimeShift, d.Novelty.RegimeShiftReason,
		d.Novelty.AssetNovelty, d.Novelty.AssetNoveltyReason,
		d.Novelty.Disagreement, d.Novelty.DisagreementReason,
		d.NoveltyScore, d.Slippage, d.SlippageRule,
		d.GateKey, d.ForecastID, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *ClickHouseDecisionStore) Query(ctx context.Context, f repository.DecisionFilter) ([]*models.AdmissionDecision, error) {
	var conds []string
	var args []interface{}
	if f.Asset != "" {
		conds = append(conds, "asset = ?")
		args = append(args, f.Asset)
	}
	if f.Executed != nil {
		conds = append(conds, "executed = ?")
		if *f.Executed {
			args = append(args, uint8(1))
		} else {
			args = append(args, uint8(0))
		}
	}
	if !f.From.IsZero() {
		conds = append(conds, "decided_at >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "decided_at <= ?")
		args = append(args, f.To)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	q := fmt.Sprintf(`SELECT
		trade_id, asset, instrument, direction, executed, blocked_reason, blocked_detail,
		raw_confidence, calibrated_confidence, effective_threshold, position_size, info_gain,
		regime_shift, regime_shift_reason, asset_novelty, asset_novelty_reason,
		disagreement, disagreement_reason, novelty_score, slippage, slippage_rule,
		gate_key, forecast_id, decided_at
	FROM %s %s ORDER BY decided_at DESC LIMIT ?`, s.table, where)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.AdmissionDecision
	for rows.Next() {
		var d models.AdmissionDecision
		var direction, reason string
		var executed uint8
		if err := rows.Scan(
			&d.TradeID, &d.Asset, &d.Instrument, &direction, &executed, &reason, &d.BlockedDetail,
			&d.RawConfidence, &d.CalibratedConfidence, &d.EffectiveThreshold, &d.PositionSize, &d.InfoGain,
			&d.Novelty.RegimeShift, &d.Novelty.RegimeShiftReason,
			&d.Novelty.AssetNovelty, &d.Novelty.AssetNoveltyReason,
			&d.Novelty.Disagreement, &d.Novelty.DisagreementReason,
			&d.NoveltyScore, &d.Slippage, &d.SlippageRule,
			&d.GateKey, &d.ForecastID, &d.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Direction = models.Direction(direction)
		d.BlockedReason = models.BlockReason(reason)
		d.Executed = executed == 1
		out = append(out, &d)
	}
	return out, rows.Err()
}

// CountAssetTrades counts executed trades for the asset since the cutoff.
func (s *ClickHouseDecisionStore) CountAssetTrades(ctx context.Context, asset string, since time.Time) (int, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE asset = ? AND executed = 1 AND decided_at >= ?", s.table)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, asset, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count asset trades: %w", err)
	}
	return int(n), nil
}

// DirectionCounts returns executed trade counts per direction since the cutoff.
func (s *ClickHouseDecisionStore) DirectionCounts(ctx context.Context, asset string, since time.Time) (map[models.Direction]int, error) {
	q := fmt.Sprintf("SELECT direction, count() FROM %s WHERE asset = ? AND executed = 1 AND decided_at >= ? GROUP BY direction", s.table)
	rows, err := s.db.QueryContext(ctx, q, asset, since)
	if err != nil {
		return nil, fmt.Errorf("count directions: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Direction]int)
	for rows.Next() {
		var dir string
		var n uint64
		if err := rows.Scan(&dir, &n); err != nil {
			return nil, fmt.Errorf("scan direction count: %w", err)
		}
		out[models.Direction(dir)] = int(n)
	}
	return out, rows.Err()
}

func (s *ClickHouseDecisionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseDecisionStore) Close() error {
	return nil // Managed by pkg
}

var (
	_ repository.DecisionStore = (*ClickHouseDecisionStore)(nil)
	_ repository.TradeHistory  = (*ClickHouseDecisionStore)(nil)
)
