package models

import (
	"testing"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    TrendDirection
	}{
		{"big gain", 30, TrendUp},
		{"just above band", 3.01, TrendUp},
		{"at band edge", 3, TrendStable},
		{"small gain", 1, TrendStable},
		{"flat", 0, TrendStable},
		{"small loss", -2.5, TrendStable},
		{"at lower edge", -3, TrendStable},
		{"just below band", -3.01, TrendDown},
		{"big loss", -50, TrendDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.percent); got != tt.want {
				t.Errorf("ClassifyTrend(%v) = %s, want %s", tt.percent, got, tt.want)
			}
		})
	}
}

func TestNeutralTrend(t *testing.T) {
	n := NeutralTrend()

	if n.Percent != 0 {
		t.Errorf("Percent = %v, want 0", n.Percent)
	}
	if n.Direction != TrendStable {
		t.Errorf("Direction = %s, want stable", n.Direction)
	}
	if n.History == nil || len(n.History) != 0 {
		t.Errorf("History should be an empty, non-nil slice, got %v", n.History)
	}
}
