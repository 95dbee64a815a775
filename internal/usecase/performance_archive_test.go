package usecase

import (
	"context"
	"errors"
	"testing"

	"TradeGate/internal/domain/models"
)

type flakyFeed struct {
	snap *models.DailyPerformanceSnapshot
	err  error
}

func (f *flakyFeed) Latest(context.Context) (*models.DailyPerformanceSnapshot, error) {
	return f.snap, f.err
}

type memPerfStore struct {
	stored   []*models.DailyPerformanceSnapshot
	latest   *models.DailyPerformanceSnapshot
	storeErr error
}

func (m *memPerfStore) Store(_ context.Context, s *models.DailyPerformanceSnapshot) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.stored = append(m.stored, s)
	m.latest = s
	return nil
}

func (m *memPerfStore) Latest(context.Context) (*models.DailyPerformanceSnapshot, error) {
	return m.latest, nil
}

func TestArchivingFeedStoresFetchedSnapshot(t *testing.T) {
	snap := &models.DailyPerformanceSnapshot{Day: "2024-10-10", TradeCount: 8, HitRate: 0.6}
	store := &memPerfStore{}
	feed := NewArchivingPerformanceFeed(&flakyFeed{snap: snap}, store, testLogger())

	got, err := feed.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Day != "2024-10-10" {
		t.Fatalf("snapshot day = %q", got.Day)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected snapshot archived, stored = %d", len(store.stored))
	}
}

func TestArchivingFeedFallsBackToArchive(t *testing.T) {
	archived := &models.DailyPerformanceSnapshot{Day: "2024-10-09", HitRate: 0.55}
	store := &memPerfStore{latest: archived}
	feed := NewArchivingPerformanceFeed(&flakyFeed{err: errors.New("timeout")}, store, testLogger())

	got, err := feed.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest should fall back, got error: %v", err)
	}
	if got.Day != "2024-10-09" {
		t.Fatalf("expected archived snapshot, got day %q", got.Day)
	}
}

func TestArchivingFeedErrorWithEmptyArchive(t *testing.T) {
	boom := errors.New("timeout")
	feed := NewArchivingPerformanceFeed(&flakyFeed{err: boom}, &memPerfStore{}, testLogger())

	if _, err := feed.Latest(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected feed error, got %v", err)
	}
}

func TestArchivingFeedToleratesStoreFailure(t *testing.T) {
	snap := &models.DailyPerformanceSnapshot{Day: "2024-10-10"}
	store := &memPerfStore{storeErr: errors.New("insert failed")}
	feed := NewArchivingPerformanceFeed(&flakyFeed{snap: snap}, store, testLogger())

	got, err := feed.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != snap {
		t.Fatal("expected live snapshot despite archive failure")
	}
}
