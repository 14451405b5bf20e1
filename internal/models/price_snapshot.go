package models

import (
	"time"
)

// PriceFacets holds one day's price observations for a card. Every facet is
// independently nullable because not every price source reports every
// variant for every card.
type PriceFacets struct {
	TCGLow               *float64 `json:"tcg_low"`
	TCGMid               *float64 `json:"tcg_mid"`
	TCGHigh              *float64 `json:"tcg_high"`
	TCGMarket            *float64 `json:"tcg_market"`
	TCGReverseHoloMarket *float64 `json:"tcg_reverse_holo_market"`
	TCGHolofoilMarket    *float64 `json:"tcg_holofoil_market"`
	CMAvgSell            *float64 `json:"cm_avg_sell"`
	CMLow                *float64 `json:"cm_low"`
	CMTrend              *float64 `json:"cm_trend"`
	CMAvg1               *float64 `json:"cm_avg1"`
	CMAvg7               *float64 `json:"cm_avg7"`
	CMAvg30              *float64 `json:"cm_avg30"`
	CMReverseHoloTrend   *float64 `json:"cm_reverse_holo_trend"`
}

// PriceSnapshot stores the price facets observed for one card on one
// calendar day. At most one row exists per (card, date); re-recording the
// same day replaces the previous observation wholesale.
type PriceSnapshot struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID       string      `json:"card_id" gorm:"not null;uniqueIndex:idx_snapshot_card_date;index"`
	SnapshotDate time.Time   `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_snapshot_card_date"`
	PriceFacets  `gorm:"embedded"`
	CreatedAt    time.Time `json:"created_at"`
}

// FacetColumns lists the snapshot facet column names in upsert order.
// Kept next to PriceFacets so schema changes update both together.
func FacetColumns() []string {
	return []string{
		"tcg_low", "tcg_mid", "tcg_high", "tcg_market",
		"tcg_reverse_holo_market", "tcg_holofoil_market",
		"cm_avg_sell", "cm_low", "cm_trend",
		"cm_avg1", "cm_avg7", "cm_avg30", "cm_reverse_holo_trend",
	}
}
