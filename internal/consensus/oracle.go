package consensus

import (
	"context"
	"errors"
)

// ErrQuotaExhausted is returned when the reasoning backend rate-limits.
var ErrQuotaExhausted = errors.New("oracle quota exhausted")

// ErrOracleUnavailable is returned when the backend cannot be reached or no
// API key is configured.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// ErrAnalysisInFlight is returned when a match already has an analysis
// running.
var ErrAnalysisInFlight = errors.New("analysis already in flight for match")

// Citation is one source backing a pulse summary.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PulseResult is the free-text first phase: a search-grounded read of the
// match situation.
type PulseResult struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// StructuralContext is the panel's read of the conditions around a match.
// VolatilityIndex is 0-10.
type StructuralContext struct {
	VenueBehavior           string  `json:"venueBehavior"`
	VolatilityIndex         float64 `json:"volatilityIndex"`
	PressureClassification  string  `json:"pressureClassification"`
	SquadBalanceObservation string  `json:"squadBalanceObservation"`
}

// Observation is one market-level finding from the structural phase.
// Reasoning holds the panel's reasoning strings, strongest first;
// ExpertsConcurred names the panel members backing the finding.
type Observation struct {
	MarketID         string   `json:"marketId"`
	Type             string   `json:"type"` // INFLATION, COMPRESSION, VARIANCE_PLAY
	Confidence       float64  `json:"confidence"`
	Reasoning        []string `json:"reasoning"`
	ExpertsConcurred []string `json:"expertsConcurred"`
	TriggeredRules   []string `json:"triggeredRules,omitempty"`
}

// StructuralAnalysis is the schema-constrained second phase.
type StructuralAnalysis struct {
	Context        StructuralContext `json:"context"`
	ConsensusLevel int               `json:"consensusLevel"`
	Observations   []Observation     `json:"observations"`
}

// ReasoningOracle is the two-phase reasoning backend. Summarize produces a
// grounded situation pulse; Structure turns pulse plus market state into a
// structured panel verdict.
type ReasoningOracle interface {
	Summarize(ctx context.Context, prompt string) (*PulseResult, error)
	Structure(ctx context.Context, systemPrompt, userPrompt string) (*StructuralAnalysis, error)
}
