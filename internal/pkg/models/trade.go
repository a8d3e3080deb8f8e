package models

import "time"

// TradeSide is the side of an exchange bet.
type TradeSide string

const (
	SideBack TradeSide = "BACK"
	SideLay  TradeSide = "LAY"
)

// TradeStatus is the settlement state of a trade.
type TradeStatus string

const (
	TradeMatched TradeStatus = "MATCHED"
	TradeWon     TradeStatus = "WON"
	TradeLost    TradeStatus = "LOST"
	TradeFailed  TradeStatus = "FAILED"
)

// Trade is one append-only ledger entry. Match and market fields are
// denormalized display copies: matches are ephemeral and a trade must stay
// readable after its match disappears from the feed.
type Trade struct {
	ID          string      `json:"id"`
	MatchID     string      `json:"match_id"`
	MatchName   string      `json:"match_name"`
	MarketLabel string      `json:"market_label"`
	Side        TradeSide   `json:"side"`
	Odds        float64     `json:"odds"`
	Stake       float64     `json:"stake"`
	RuleID      string      `json:"rule_id"`
	Status      TradeStatus `json:"status"`
	SourceNode  string      `json:"source_node"`
	Timestamp   time.Time   `json:"timestamp"`
	Explanation string      `json:"explanation,omitempty"`
}

// Profit returns realized profit: stake*(odds-1) for WON, -stake for LOST,
// zero while unsettled or failed.
func (t *Trade) Profit() float64 {
	switch t.Status {
	case TradeWon:
		return t.Stake * (t.Odds - 1)
	case TradeLost:
		return -t.Stake
	default:
		return 0
	}
}
