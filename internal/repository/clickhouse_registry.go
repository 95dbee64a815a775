package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/util"
)

// ClickHouseGateRegistry reads calibration gates maintained out-of-band by
// the calibration learner. Read-only to the pipeline.
type ClickHouseGateRegistry struct {
	db *sql.DB
}

func NewClickHouseGateRegistry(db *sql.DB) *ClickHouseGateRegistry {
	return &ClickHouseGateRegistry{db: db}
}

func (r *ClickHouseGateRegistry) Lookup(ctx context.Context, forecastType, regime string) (*models.CalibrationGate, error) {
	q := `SELECT forecast_type, regime, ceiling, sample_count, updated_at
		FROM calibration_gates FINAL WHERE forecast_type = ? AND regime = ? LIMIT 1`
	var g models.CalibrationGate
	var samples uint32
	err := r.db.QueryRowContext(ctx, q, forecastType, regime).
		Scan(&g.ForecastType, &g.Regime, &g.Ceiling, &samples, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrGateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup gate: %w", err)
	}
	g.SampleCount = int(samples)
	return &g, nil
}

func (r *ClickHouseGateRegistry) List(ctx context.Context) ([]*models.CalibrationGate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT forecast_type, regime, ceiling, sample_count, updated_at
		FROM calibration_gates FINAL ORDER BY forecast_type, regime`)
	if err != nil {
		return nil, fmt.Errorf("list gates: %w", err)
	}
	defer rows.Close()

	var out []*models.CalibrationGate
	for rows.Next() {
		var g models.CalibrationGate
		var samples uint32
		if err := rows.Scan(&g.ForecastType, &g.Regime, &g.Ceiling, &samples, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan gate: %w", err)
		}
		g.SampleCount = int(samples)
		out = append(out, &g)
	}
	return out, rows.Err()
}

// ClickHouseExceptionStore keeps cadence exceptions. Expired rows stay for
// audit; ActiveFloor filters them out.
type ClickHouseExceptionStore struct {
	db *sql.DB
}

func NewClickHouseExceptionStore(db *sql.DB) *ClickHouseExceptionStore {
	return &ClickHouseExceptionStore{db: db}
}

func (s *ClickHouseExceptionStore) Store(ctx context.Context, e *models.CadenceException) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cadence_exceptions (id, floor, reason, issued_by, issued_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Floor, e.Reason, e.IssuedBy, e.IssuedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert exception: %w", err)
	}
	return nil
}

func (s *ClickHouseExceptionStore) ActiveFloor(ctx context.Context, now time.Time) (float64, bool, error) {
	q := `SELECT floor FROM cadence_exceptions WHERE issued_at >= ? AND expires_at > ? ORDER BY floor ASC LIMIT 1`
	dayStart := util.NextMidnight(now).Add(-24 * time.Hour)
	var floor float64
	if err := s.db.QueryRowContext(ctx, q, dayStart, now).Scan(&floor); err != nil {
		if err == sql.ErrNoRows {
			// No active exception today.
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query exceptions: %w", err)
	}
	return floor, true, nil
}

// ClickHouseBeliefStore records regime snapshots for the novelty scorer.
type ClickHouseBeliefStore struct {
	db *sql.DB
}

func NewClickHouseBeliefStore(db *sql.DB) *ClickHouseBeliefStore {
	return &ClickHouseBeliefStore{db: db}
}

func (s *ClickHouseBeliefStore) LatestRegime(ctx context.Context) (string, time.Time, error) {
	var regime string
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT regime, recorded_at FROM belief_snapshots ORDER BY recorded_at DESC LIMIT 1`).
		Scan(&regime, &at)
	if err == sql.ErrNoRows {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("latest regime: %w", err)
	}
	return regime, at, nil
}

func (s *ClickHouseBeliefStore) RecordRegime(ctx context.Context, regime string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO belief_snapshots (regime, recorded_at) VALUES (?, ?)`, regime, at); err != nil {
		return fmt.Errorf("record regime: %w", err)
	}
	return nil
}

// ClickHousePerformanceStore keeps the daily snapshot audit trail alongside
// the external feed the halt controller reads live.
type ClickHousePerformanceStore struct {
	db *sql.DB
}

func NewClickHousePerformanceStore(db *sql.DB) *ClickHousePerformanceStore {
	return &ClickHousePerformanceStore{db: db}
}

func (s *ClickHousePerformanceStore) Store(ctx context.Context, snap *models.DailyPerformanceSnapshot) error {
	errCounts, err := json.Marshal(snap.ErrorCounts)
	if err != nil {
		return fmt.Errorf("marshal error counts: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO performance_snapshots
		(day, trade_count, hit_rate, brier_score, high_confidence_count, high_confidence_accuracy, error_counts, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Day, uint32(snap.TradeCount), snap.HitRate, snap.BrierScore,
		uint32(snap.HighConfidenceCount), snap.HighConfidenceAccuracy,
		string(errCounts), snap.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *ClickHousePerformanceStore) Latest(ctx context.Context) (*models.DailyPerformanceSnapshot, error) {
	var snap models.DailyPerformanceSnapshot
	var day time.Time
	var tradeCount, highCount uint32
	var errCounts string
	err := s.db.QueryRowContext(ctx,
		`SELECT day, trade_count, hit_rate, brier_score, high_confidence_count, high_confidence_accuracy, error_counts, generated_at
		FROM performance_snapshots FINAL ORDER BY day DESC LIMIT 1`).
		Scan(&day, &tradeCount, &snap.HitRate, &snap.BrierScore, &highCount, &snap.HighConfidenceAccuracy, &errCounts, &snap.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	snap.Day = util.DayKey(day)
	snap.TradeCount = int(tradeCount)
	snap.HighConfidenceCount = int(highCount)
	if errCounts != "" {
		if err := json.Unmarshal([]byte(errCounts), &snap.ErrorCounts); err != nil {
			return nil, fmt.Errorf("unmarshal error counts: %w", err)
		}
	}
	return &snap, nil
}

var (
	_ repository.GateRegistry     = (*ClickHouseGateRegistry)(nil)
	_ repository.ExceptionStore   = (*ClickHouseExceptionStore)(nil)
	_ repository.BeliefStateStore = (*ClickHouseBeliefStore)(nil)
	_ repository.PerformanceStore = (*ClickHousePerformanceStore)(nil)
)
