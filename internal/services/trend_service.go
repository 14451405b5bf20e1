package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pokescan/backend/internal/models"
)

// DefaultTrendWindowDays is the window used when a caller does not ask for
// a specific span.
const DefaultTrendWindowDays = 30

// TrendService derives percent-change trends over a day window from stored
// price snapshots.
type TrendService struct {
	db *gorm.DB
}

func NewTrendService(db *gorm.DB) *TrendService {
	return &TrendService{db: db}
}

// ComputeTrend returns the trend for a card over the last windowDays days.
// Only snapshots with a non-null primary market price qualify. Fewer than
// two qualifying snapshots, or an earliest price of zero, yield the neutral
// result rather than an error; the percent is the change between the
// chronologically first and last qualifying snapshots, not a regression.
func (s *TrendService) ComputeTrend(cardID string, windowDays int) (*models.TrendResult, error) {
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}

	since := midnight(time.Now()).AddDate(0, 0, -windowDays)

	var snapshots []models.PriceSnapshot
	err := s.db.
		Where("card_id = ? AND snapshot_date >= ? AND tcg_market IS NOT NULL", cardID, since).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for card %s: %w", cardID, err)
	}

	if len(snapshots) < 2 {
		return models.NeutralTrend(), nil
	}

	earliest := *snapshots[0].TCGMarket
	latest := *snapshots[len(snapshots)-1].TCGMarket
	if earliest == 0 {
		// Percent change from zero is undefined; report neutral instead
		// of an infinite swing.
		return models.NeutralTrend(), nil
	}

	percent := (latest - earliest) / earliest * 100

	history := make([]models.TrendPoint, len(snapshots))
	for i, snap := range snapshots {
		history[i] = models.TrendPoint{
			Date:      snap.SnapshotDate.Format("2006-01-02"),
			TCGMarket: *snap.TCGMarket,
			CMTrend:   snap.CMTrend,
		}
	}

	return &models.TrendResult{
		Percent:   percent,
		Direction: models.ClassifyTrend(percent),
		History:   history,
	}, nil
}
