package models

// TrendDirection classifies a price movement over a window.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// trendDeadBandPercent is the band around zero inside which a movement is
// still reported as stable, so day-to-day noise does not flip the direction.
const trendDeadBandPercent = 3.0

// ClassifyTrend maps a percent change to a direction using the dead-band.
func ClassifyTrend(percent float64) TrendDirection {
	switch {
	case percent > trendDeadBandPercent:
		return TrendUp
	case percent < -trendDeadBandPercent:
		return TrendDown
	default:
		return TrendStable
	}
}

// TrendPoint is one day of price history used in a trend computation.
type TrendPoint struct {
	Date      string   `json:"date"`
	TCGMarket float64  `json:"tcg_market"`
	CMTrend   *float64 `json:"cm_trend"`
}

// TrendResult is the derived trend over a day window. It is computed on
// demand from snapshots and never stored.
type TrendResult struct {
	Percent   float64        `json:"percent"`
	Direction TrendDirection `json:"direction"`
	History   []TrendPoint   `json:"history"`
}

// NeutralTrend is the defined degenerate result: fewer than two qualifying
// snapshots in the window, or an earliest price of zero.
func NeutralTrend() *TrendResult {
	return &TrendResult{
		Percent:   0,
		Direction: TrendStable,
		History:   []TrendPoint{},
	}
}
