package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
)

func fixtureMatch() (*models.Match, *models.MarketLine) {
	line := &models.MarketLine{
		ID:       "ml1_2",
		Type:     models.MarketInningsRuns,
		Label:    "1st Innings Runs: IND Over 185.5",
		BackOdds: 2.5,
		LayOdds:  2.56,
		Source:   models.SourceBetfair,
	}
	match := &models.Match{
		ID:          "m1",
		TeamA:       "India",
		TeamB:       "Australia",
		MarketLines: []models.MarketLine{*line},
	}
	return match, line
}

func TestLedger_RecordCapturesEntryPrice(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	match, line := fixtureMatch()
	edge := &models.Edge{MatchID: "m1", MarketID: "ml1_2", TriggeredRules: []string{"mean-reversal-extreme"}}

	trade, err := l.Record(ctx, match, edge, line, models.SideBack)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if trade.Status != models.TradeMatched {
		t.Errorf("new trade status = %s, want MATCHED", trade.Status)
	}
	if trade.Odds != 2.5 {
		t.Errorf("back trade odds = %v, want 2.5", trade.Odds)
	}
	if trade.MatchName != "India v Australia" {
		t.Errorf("match name = %q", trade.MatchName)
	}
	if trade.RuleID != "mean-reversal-extreme" {
		t.Errorf("rule id = %q", trade.RuleID)
	}

	// Price moving after the record must not touch the booked trade.
	line.BackOdds = 4.0
	got, err := l.Get(ctx, trade.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Odds != 2.5 {
		t.Errorf("trade odds drifted with the market: %v", got.Odds)
	}
}

func TestLedger_LaySideUsesLayPrice(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	match, line := fixtureMatch()

	trade, err := l.Record(ctx, match, &models.Edge{}, line, models.SideLay)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if trade.Odds != 2.56 {
		t.Errorf("lay trade odds = %v, want 2.56", trade.Odds)
	}
}

func TestLedger_ProfitArithmetic(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	match, line := fixtureMatch()

	won, err := l.Record(ctx, match, &models.Edge{}, line, models.SideBack)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	lost, err := l.Record(ctx, match, &models.Edge{}, line, models.SideBack)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := l.Settle(ctx, won.ID, models.TradeWon, ""); err != nil {
		t.Fatalf("settle won: %v", err)
	}
	if err := l.Settle(ctx, lost.ID, models.TradeLost, ""); err != nil {
		t.Fatalf("settle lost: %v", err)
	}

	gotWon, _ := l.Get(ctx, won.ID)
	if p := gotWon.Profit(); p != 150 {
		t.Errorf("won profit = %v, want 150", p)
	}
	gotLost, _ := l.Get(ctx, lost.ID)
	if p := gotLost.Profit(); p != -100 {
		t.Errorf("lost profit = %v, want -100", p)
	}
}

func TestLedger_SettleIsFinal(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	match, line := fixtureMatch()

	trade, err := l.Record(ctx, match, &models.Edge{}, line, models.SideBack)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Settle(ctx, trade.ID, models.TradeWon, "first"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	err = l.Settle(ctx, trade.ID, models.TradeLost, "second")
	if !errors.Is(err, storage.ErrAlreadySettled) {
		t.Errorf("second settle: got %v, want ErrAlreadySettled", err)
	}
}

func TestLedger_RejectsInvalidSettlement(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	if err := l.Settle(ctx, "t1", models.TradeMatched, ""); err == nil {
		t.Error("settling to MATCHED accepted")
	}
	if err := l.Settle(ctx, "t1", models.TradeFailed, ""); err == nil {
		t.Error("settling to FAILED accepted")
	}
}

func TestLedger_RecordUnpricedLine(t *testing.T) {
	ctx := context.Background()
	l := New(storage.NewMemoryTradeStorage(), 100)
	match, _ := fixtureMatch()
	dead := &models.MarketLine{ID: "ml1_9", Label: "Suspended", BackOdds: 0}

	if _, err := l.Record(ctx, match, &models.Edge{}, dead, models.SideBack); err == nil {
		t.Error("recorded a trade at no price")
	}
}
