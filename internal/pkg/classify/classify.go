package classify

import "github.com/wicketwise/wicketwise/internal/pkg/models"

// Thresholds bound the sane odds band. Odds strictly below Min or strictly
// above Max are treated as illiquid/longshot lines.
type Thresholds struct {
	Min float64
	Max float64
}

// DefaultThresholds is the standard discipline band.
var DefaultThresholds = Thresholds{Min: 1.02, Max: 12.0}

// tactical is the allow-list of secondary structural markets.
var tactical = map[models.MarketType]bool{
	models.MarketInningsRuns: true,
	models.MarketSessionRuns: true,
	models.MarketPowerplay:   true,
	models.MarketOverRuns4:   true,
	models.MarketOverRuns6:   true,
	models.MarketOverRuns10:  true,
	models.MarketOverRuns15:  true,
	models.MarketOverRuns20:  true,
	models.MarketOverRuns25:  true,
	models.MarketOverRuns30:  true,
	models.MarketOverRuns40:  true,
	models.MarketOverRuns50:  true,
}

// Classify maps a market type and its current back price onto a risk tier.
//
// APEX_STRAT: core liquidity market (match odds), always strategically
// relevant regardless of price. VOID_TRAP: extreme longshots, illiquid
// lines, or anything not explicitly allow-listed. TACTICAL_PLAY: secondary
// structural runs markets inside the sane band.
//
// Rules are evaluated in order, first match wins. The function is pure and
// total: every (type, odds) pair classifies.
func Classify(marketType models.MarketType, backOdds float64) models.Classification {
	return ClassifyWith(DefaultThresholds, marketType, backOdds)
}

// ClassifyWith is Classify with a configured strictness band. Both bounds
// are exclusive: a price of exactly Max is still tradeable.
func ClassifyWith(t Thresholds, marketType models.MarketType, backOdds float64) models.Classification {
	if marketType == models.MarketMatchWinner {
		return models.ClassApexStrat
	}
	if backOdds > t.Max || backOdds < t.Min {
		return models.ClassVoidTrap
	}
	if tactical[marketType] {
		return models.ClassTacticalPlay
	}
	return models.ClassVoidTrap
}
