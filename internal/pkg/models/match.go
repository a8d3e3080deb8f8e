package models

import "time"

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	StatusLive      MatchStatus = "LIVE"
	StatusUpcoming  MatchStatus = "UPCOMING"
	StatusCompleted MatchStatus = "COMPLETED"
)

// MatchFormat is the cricket format of a match.
type MatchFormat string

const (
	FormatT20  MatchFormat = "T20"
	FormatODI  MatchFormat = "ODI"
	FormatTest MatchFormat = "TEST"
)

// Source identifies which adapter produced a market line.
type Source string

const (
	SourceBetfair   Source = "BETFAIR"
	SourceJeebet    Source = "JEEBET"
	SourceSynthetic Source = "SYNTHETIC"
)

// MarketType is the kind of betting market a line represents.
type MarketType string

const (
	MarketMatchWinner MarketType = "MATCH_WINNER"
	MarketInningsRuns MarketType = "INN_RUNS"
	MarketPowerplay   MarketType = "PP_RUNS"
	MarketSessionRuns MarketType = "SESSION_RUNS"
	MarketWicketNext  MarketType = "WICKET_NEXT"
	MarketOverRuns4   MarketType = "OVER_RUNS_4"
	MarketOverRuns6   MarketType = "OVER_RUNS_6"
	MarketOverRuns10  MarketType = "OVER_RUNS_10"
	MarketOverRuns15  MarketType = "OVER_RUNS_15"
	MarketOverRuns20  MarketType = "OVER_RUNS_20"
	MarketOverRuns25  MarketType = "OVER_RUNS_25"
	MarketOverRuns30  MarketType = "OVER_RUNS_30"
	MarketOverRuns40  MarketType = "OVER_RUNS_40"
	MarketOverRuns50  MarketType = "OVER_RUNS_50"
)

// Classification is the risk/strategy tier assigned to a market line.
type Classification string

const (
	ClassApexStrat    Classification = "APEX_STRAT"
	ClassTacticalPlay Classification = "TACTICAL_PLAY"
	ClassVoidTrap     Classification = "VOID_TRAP"
)

// MarketLine is one normalized betting market inside a match.
// BackOdds < LayOdds is expected but not enforced: upstream books do cross,
// and consumers must tolerate it.
type MarketLine struct {
	ID             string         `json:"id"`
	Type           MarketType     `json:"type"`
	Label          string         `json:"label"`
	Classification Classification `json:"classification"`
	LineValue      float64        `json:"line_value,omitempty"` // e.g. runs threshold
	BackOdds       float64        `json:"back_odds"`
	LayOdds        float64        `json:"lay_odds"`
	TotalMatched   float64        `json:"total_matched"`
	BackLiquidity  float64        `json:"back_liquidity"`
	LayLiquidity   float64        `json:"lay_liquidity"`
	// InitialOdds is the first back price observed for this line within a
	// session. Once set it is never overwritten; it is the drift baseline.
	InitialOdds float64   `json:"initial_odds,omitempty"`
	Source      Source    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Match is the canonical cricket match produced by every source adapter.
// A match exclusively owns its market lines.
type Match struct {
	ID            string       `json:"id"`
	TeamA         string       `json:"team_a"`
	TeamB         string       `json:"team_b"`
	ScoreA        string       `json:"score_a"`
	ScoreB        string       `json:"score_b"`
	Status        MatchStatus  `json:"status"`
	Format        MatchFormat  `json:"format"`
	Venue         string       `json:"venue"`
	Overs         string       `json:"overs"`
	StartingOddsA float64      `json:"starting_odds_a,omitempty"`
	StartingOddsB float64      `json:"starting_odds_b,omitempty"`
	MarketLines   []MarketLine `json:"market_lines"`
	AnalysesUsed  int          `json:"analyses_used"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Name returns the display name used in alerts and trade records.
func (m *Match) Name() string {
	return m.TeamA + " v " + m.TeamB
}

// Line returns the market line with the given id, or nil.
func (m *Match) Line(marketID string) *MarketLine {
	for i := range m.MarketLines {
		if m.MarketLines[i].ID == marketID {
			return &m.MarketLines[i]
		}
	}
	return nil
}
