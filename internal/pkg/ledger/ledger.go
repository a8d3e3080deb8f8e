package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
)

// Ledger records paper trades against the trade store. Entry price and the
// display fields are captured at record time; matches are ephemeral and the
// ledger must not depend on the feed keeping them around.
type Ledger struct {
	store     storage.TradeStorage
	unitStake float64
	now       func() time.Time
}

func New(store storage.TradeStorage, unitStake float64) *Ledger {
	return &Ledger{store: store, unitStake: unitStake, now: time.Now}
}

// Record opens a MATCHED trade for an edge at the line's current price.
// BACK trades capture the back price, LAY trades the lay price.
func (l *Ledger) Record(ctx context.Context, match *models.Match, edge *models.Edge, line *models.MarketLine, side models.TradeSide) (*models.Trade, error) {
	odds := line.BackOdds
	if side == models.SideLay {
		odds = line.LayOdds
	}
	if odds <= 1.0 {
		return nil, fmt.Errorf("no tradeable price on %s (%s side)", line.ID, side)
	}

	ruleID := ""
	if len(edge.TriggeredRules) > 0 {
		ruleID = edge.TriggeredRules[0]
	}

	trade := &models.Trade{
		ID:          newTradeID(),
		MatchID:     match.ID,
		MatchName:   match.Name(),
		MarketLabel: line.Label,
		Side:        side,
		Odds:        odds,
		Stake:       l.unitStake,
		RuleID:      ruleID,
		Status:      models.TradeMatched,
		SourceNode:  string(line.Source),
		Timestamp:   l.now(),
	}

	if err := l.store.StoreTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}

	slog.Info("Trade recorded",
		"trade_id", trade.ID,
		"match", trade.MatchName,
		"market", trade.MarketLabel,
		"side", trade.Side,
		"odds", trade.Odds,
		"stake", trade.Stake)
	return trade, nil
}

// Settle closes a trade as WON or LOST. Settlement is final; the store
// rejects a second attempt with storage.ErrAlreadySettled.
func (l *Ledger) Settle(ctx context.Context, tradeID string, status models.TradeStatus, explanation string) error {
	if status != models.TradeWon && status != models.TradeLost {
		return fmt.Errorf("invalid settlement status %q", status)
	}
	if err := l.store.SettleTrade(ctx, tradeID, status, explanation); err != nil {
		return err
	}
	slog.Info("Trade settled", "trade_id", tradeID, "status", status)
	return nil
}

// Get returns one trade by id.
func (l *Ledger) Get(ctx context.Context, tradeID string) (*models.Trade, error) {
	return l.store.GetTrade(ctx, tradeID)
}

// History returns recent trades, newest first.
func (l *Ledger) History(ctx context.Context, limit int) ([]models.Trade, error) {
	return l.store.GetTrades(ctx, limit)
}

func newTradeID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("trade_%d", time.Now().UnixNano())
	}
	return "trade_" + hex.EncodeToString(buf)
}
