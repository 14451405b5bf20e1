package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pokescan/backend/internal/models"
)

func seedSnapshot(t *testing.T, db *gorm.DB, cardID string, daysAgo int, market *float64, cmTrend *float64) {
	t.Helper()

	date := midnight(time.Now()).AddDate(0, 0, -daysAgo)
	snap := models.PriceSnapshot{
		CardID:       cardID,
		SnapshotDate: date,
		PriceFacets: models.PriceFacets{
			TCGMarket: market,
			CMTrend:   cmTrend,
		},
	}
	if err := db.Create(&snap).Error; err != nil {
		t.Fatalf("failed to seed snapshot: %v", err)
	}
}

func TestComputeTrendUp(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 10, fptr(100), fptr(95))
	seedSnapshot(t, db, "x", 1, fptr(130), fptr(120))

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != 30 {
		t.Errorf("Percent = %v, want 30", trend.Percent)
	}
	if trend.Direction != models.TrendUp {
		t.Errorf("Direction = %s, want up", trend.Direction)
	}
	if len(trend.History) != 2 {
		t.Fatalf("History length = %d, want 2", len(trend.History))
	}
	if trend.History[0].TCGMarket != 100 || trend.History[1].TCGMarket != 130 {
		t.Errorf("History out of order: %v", trend.History)
	}
	if trend.History[0].CMTrend == nil || *trend.History[0].CMTrend != 95 {
		t.Errorf("History should carry the cm_trend facet")
	}
}

func TestComputeTrendInsideDeadBand(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 5, fptr(100), nil)
	seedSnapshot(t, db, "x", 1, fptr(101), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != 1 {
		t.Errorf("Percent = %v, want 1", trend.Percent)
	}
	if trend.Direction != models.TrendStable {
		t.Errorf("Direction = %s, want stable (inside dead-band)", trend.Direction)
	}
}

func TestComputeTrendDown(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 20, fptr(200), nil)
	seedSnapshot(t, db, "x", 2, fptr(150), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != -25 {
		t.Errorf("Percent = %v, want -25", trend.Percent)
	}
	if trend.Direction != models.TrendDown {
		t.Errorf("Direction = %s, want down", trend.Direction)
	}
}

func TestComputeTrendSingleSnapshotIsNeutral(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 3, fptr(100), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != 0 || trend.Direction != models.TrendStable || len(trend.History) != 0 {
		t.Errorf("expected neutral result, got %+v", trend)
	}
}

func TestComputeTrendZeroEarliestIsNeutral(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 10, fptr(0), nil)
	seedSnapshot(t, db, "x", 1, fptr(50), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != 0 || trend.Direction != models.TrendStable || len(trend.History) != 0 {
		t.Errorf("zero earliest price should be neutral, got %+v", trend)
	}
}

func TestComputeTrendWindowFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	// Old snapshot outside the 30-day window must be ignored.
	seedSnapshot(t, db, "x", 45, fptr(10), nil)
	seedSnapshot(t, db, "x", 10, fptr(100), nil)
	seedSnapshot(t, db, "x", 1, fptr(130), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if trend.Percent != 30 {
		t.Errorf("Percent = %v, want 30 (45-day-old row should not count)", trend.Percent)
	}
	if len(trend.History) != 2 {
		t.Errorf("History length = %d, want 2", len(trend.History))
	}
}

func TestComputeTrendSkipsNullMarket(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	// A row with no primary market facet does not qualify.
	seedSnapshot(t, db, "x", 10, fptr(100), nil)
	seedSnapshot(t, db, "x", 5, nil, fptr(88))
	seedSnapshot(t, db, "x", 1, fptr(110), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if len(trend.History) != 2 {
		t.Errorf("History length = %d, want 2 (null market row excluded)", len(trend.History))
	}
	if trend.Percent != 10 {
		t.Errorf("Percent = %v, want 10", trend.Percent)
	}
}

func TestComputeTrendOtherCardsExcluded(t *testing.T) {
	db := newTestDB(t)
	svc := NewTrendService(db)

	seedSnapshot(t, db, "x", 10, fptr(100), nil)
	seedSnapshot(t, db, "y", 1, fptr(500), nil)

	trend, err := svc.ComputeTrend("x", 30)
	if err != nil {
		t.Fatalf("ComputeTrend failed: %v", err)
	}

	if len(trend.History) != 0 {
		t.Errorf("card x has one snapshot, expected neutral result, got %+v", trend)
	}
}
