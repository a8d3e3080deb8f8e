package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

func TestMemoryTradeStorage_SettleOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTradeStorage()

	trade := &models.Trade{
		ID:        "t1",
		MatchID:   "m1",
		Side:      models.SideBack,
		Odds:      2.5,
		Stake:     100,
		Status:    models.TradeMatched,
		Timestamp: time.Now(),
	}
	if err := s.StoreTrade(ctx, trade); err != nil {
		t.Fatalf("StoreTrade: %v", err)
	}

	if err := s.SettleTrade(ctx, "t1", models.TradeWon, "innings collapsed"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	err := s.SettleTrade(ctx, "t1", models.TradeLost, "revised")
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second settle: got %v, want ErrAlreadySettled", err)
	}

	got, err := s.GetTrade(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTrade: %v", err)
	}
	if got.Status != models.TradeWon || got.Explanation != "innings collapsed" {
		t.Errorf("settled trade mutated: status=%s explanation=%q", got.Status, got.Explanation)
	}
}

func TestMemoryTradeStorage_UnknownTrade(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTradeStorage()

	if _, err := s.GetTrade(ctx, "nope"); !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("GetTrade: got %v, want ErrTradeNotFound", err)
	}
	if err := s.SettleTrade(ctx, "nope", models.TradeWon, ""); !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("SettleTrade: got %v, want ErrTradeNotFound", err)
	}
}

func TestMemoryTradeStorage_GetTradesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTradeStorage()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		err := s.StoreTrade(ctx, &models.Trade{
			ID:        id,
			Status:    models.TradeMatched,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("StoreTrade %s: %v", id, err)
		}
	}

	got, err := s.GetTrades(ctx, 2)
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("unexpected order/limit: %+v", got)
	}
}

func TestMemoryBaselineStorage_SetOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBaselineStorage()

	first, err := s.EnsureBaseline(ctx, models.SourceBetfair, "ml1_1", 1.85)
	if err != nil || first != 1.85 {
		t.Fatalf("first pin: (%v, %v)", first, err)
	}
	second, err := s.EnsureBaseline(ctx, models.SourceBetfair, "ml1_1", 2.40)
	if err != nil || second != 1.85 {
		t.Errorf("baseline moved: (%v, %v)", second, err)
	}

	// Same market id under a different source is a separate baseline.
	other, err := s.EnsureBaseline(ctx, models.SourceJeebet, "ml1_1", 2.40)
	if err != nil || other != 2.40 {
		t.Errorf("cross-source collision: (%v, %v)", other, err)
	}
}
