package models

import "time"

// EdgeType tags the structural shape of a detected edge.
type EdgeType string

const (
	EdgeInflation    EdgeType = "INFLATION"
	EdgeCompression  EdgeType = "COMPRESSION"
	EdgeVariancePlay EdgeType = "VARIANCE_PLAY"
)

// StructuralContext is the oracle's situational read of a match.
type StructuralContext struct {
	VenueBehavior           string  `json:"venue_behavior"`
	VolatilityIndex         float64 `json:"volatility_index"`
	PressureClassification  string  `json:"pressure_classification"`
	SquadBalanceObservation string  `json:"squad_balance_observation"`
}

// Edge is one consensus-backed trading opportunity. Edges are created fresh
// on every analysis and never mutated; the next analysis for the same match
// supersedes them.
type Edge struct {
	MatchID             string   `json:"match_id"`
	MarketID            string   `json:"market_id"`
	EdgeType            EdgeType `json:"edge_type"`
	Confidence          float64  `json:"confidence"` // 0-100
	Observation         string   `json:"observation"`
	StructuralReasoning []string `json:"structural_reasoning"`
	ExpertsConcurred    []string `json:"experts_concurred,omitempty"`
	TriggeredRules      []string `json:"triggered_rules,omitempty"`
	// IsLocked is reserved for future auto-trading gating.
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
}
