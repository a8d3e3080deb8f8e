package models

// UserRule is a user-authored trading rule. The core never evaluates
// TriggerLogic itself; active rules are serialized into the oracle prompt
// and the oracle's response claims which rule names triggered.
type UserRule struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active"`
	MinOdds     float64 `json:"min_odds,omitempty"`
	MaxOdds     float64 `json:"max_odds,omitempty"`
	// TriggerLogic is a free-text trigger hint, forwarded to the oracle verbatim.
	TriggerLogic string `json:"trigger_logic,omitempty"`
}

// DefaultRules seeds the rule store on first run.
func DefaultRules() []UserRule {
	return []UserRule{
		{
			ID:          "mean-reversal-extreme",
			Name:        "Mean Reversal Extremes",
			Description: "Detects aggressive market line stretching (e.g. ODI scores >380 or T20 >230) where statistical mean reversal probability is high despite match context.",
			IsActive:    true,
			MinOdds:     1.05,
			MaxOdds:     10.0,
		},
		{
			ID:          "lay-the-favorite-pp",
			Name:        "Betfair Lay-the-Favorite",
			Description: "Lay the favorite if they are chasing and the RRR climbs > 10.5 in middle overs.",
			IsActive:    true,
			MinOdds:     1.1,
			MaxOdds:     1.6,
		},
		{
			ID:          "volume-spike-wickets",
			Name:        "Liquidity Momentum Check",
			Description: "Back the bowling side if a massive volume spike occurs before a ball is bowled.",
			IsActive:    true,
			MinOdds:     1.8,
			MaxOdds:     3.5,
		},
		{
			ID:          "variance-drift-back",
			Name:        "Discipline: Variance Play",
			Description: "Alert if current odds drift > 20% from SP despite no major wicket loss.",
			IsActive:    true,
			MinOdds:     1.5,
			MaxOdds:     5.0,
		},
	}
}

// ActiveRules filters to the rules currently switched on.
func ActiveRules(rules []UserRule) []UserRule {
	out := make([]UserRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}
