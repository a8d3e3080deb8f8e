package drift

import "math"

// DefaultThresholdPercent is the movement above which a line is flagged.
const DefaultThresholdPercent = 15.0

// Movement describes how far a price has moved from its session baseline.
type Movement struct {
	Percent       float64 `json:"percent"`
	IsPositive    bool    `json:"is_positive"`
	IsSignificant bool    `json:"is_significant"`
}

// Compute compares a current price against the initial (baseline) price.
// Returns nil when no baseline has been recorded yet. Pure and stateless;
// the baseline itself is never touched here.
func Compute(current, initial float64) *Movement {
	return ComputeWith(current, initial, DefaultThresholdPercent)
}

// ComputeWith is Compute with a configured significance threshold.
func ComputeWith(current, initial, thresholdPercent float64) *Movement {
	if initial <= 0 {
		return nil
	}
	percent := math.Abs(current-initial) / initial * 100
	return &Movement{
		Percent:       percent,
		IsPositive:    current >= initial,
		IsSignificant: percent > thresholdPercent,
	}
}
