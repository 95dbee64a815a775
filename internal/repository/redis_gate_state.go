package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	"TradeGate/pkg/cache"
)

const (
	haltStateKey    = "halt:state"
	cadenceKeyFmt   = "cadence:%s"
	assetLockFmt    = "lock:asset:%s"
	cadenceCountTTL = 48 * time.Hour
)

// RedisHaltStore keeps the live halt state in Redis so every worker reads the
// latest committed value, and appends transitions to the ClickHouse audit log.
type RedisHaltStore struct {
	cache *cache.RedisCache
	db    *sql.DB
}

func NewRedisHaltStore(c *cache.RedisCache, db *sql.DB) *RedisHaltStore {
	return &RedisHaltStore{cache: c, db: db}
}

func (s *RedisHaltStore) Load(ctx context.Context) (*models.HaltState, error) {
	var state models.HaltState
	err := s.cache.Get(ctx, haltStateKey, &state)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load halt state: %w", err)
	}
	return &state, nil
}

func (s *RedisHaltStore) Save(ctx context.Context, state *models.HaltState) error {
	if err := s.cache.Set(ctx, haltStateKey, state, 0); err != nil {
		return fmt.Errorf("save halt state: %w", err)
	}
	return nil
}

func (s *RedisHaltStore) AppendTransition(ctx context.Context, t *models.HaltTransition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO halt_transitions (from_level, to_level, reason, cleared_by, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		string(t.From), string(t.To), t.Reason, t.ClearedBy, t.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert halt transition: %w", err)
	}
	return nil
}

// RedisCadenceCounter is the day-scoped admitted-trade counter. Increment is
// a single INCR so concurrent admits never read a stale count into a write.
type RedisCadenceCounter struct {
	cache *cache.RedisCache
}

func NewRedisCadenceCounter(c *cache.RedisCache) *RedisCadenceCounter {
	return &RedisCadenceCounter{cache: c}
}

func (r *RedisCadenceCounter) AdmittedToday(ctx context.Context, day string) (int, error) {
	var raw string
	err := r.cache.Get(ctx, fmt.Sprintf(cadenceKeyFmt, day), &raw)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cadence counter: %w", err)
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, fmt.Errorf("parse cadence counter %q: %w", raw, err)
	}
	return n, nil
}

func (r *RedisCadenceCounter) Increment(ctx context.Context, day string) (int, error) {
	key := fmt.Sprintf(cadenceKeyFmt, day)
	n, err := r.cache.Increment(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("increment cadence counter: %w", err)
	}
	if n == 1 {
		// Fresh key for a new day; bound its lifetime.
		if _, err := r.cache.Expire(ctx, key, cadenceCountTTL); err != nil {
			return int(n), fmt.Errorf("expire cadence counter: %w", err)
		}
	}
	return int(n), nil
}

func (r *RedisCadenceCounter) Decrement(ctx context.Context, day string) (int, error) {
	n, err := r.cache.Decrement(ctx, fmt.Sprintf(cadenceKeyFmt, day))
	if err != nil {
		return 0, fmt.Errorf("decrement cadence counter: %w", err)
	}
	return int(n), nil
}

// RedisLocker serializes same-asset admissions with SetNX leases.
type RedisLocker struct {
	cache *cache.RedisCache
}

func NewRedisLocker(c *cache.RedisCache) *RedisLocker {
	return &RedisLocker{cache: c}
}

func (l *RedisLocker) TryLock(ctx context.Context, asset string, ttl time.Duration) (bool, error) {
	return l.cache.TryLock(ctx, fmt.Sprintf(assetLockFmt, asset), ttl)
}

func (l *RedisLocker) Unlock(ctx context.Context, asset string) error {
	return l.cache.Unlock(ctx, fmt.Sprintf(assetLockFmt, asset))
}

var (
	_ repository.HaltStore      = (*RedisHaltStore)(nil)
	_ repository.CadenceCounter = (*RedisCadenceCounter)(nil)
	_ repository.Locker         = (*RedisLocker)(nil)
)
