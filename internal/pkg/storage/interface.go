package storage

import (
	"context"
	"errors"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// ErrAlreadySettled is returned when a settled trade is settled again.
// Re-settlement is rejected rather than last-write-wins: silently rewriting
// realized P/L is not something a ledger should do.
var ErrAlreadySettled = errors.New("trade already settled")

// ErrTradeNotFound is returned when a trade id does not exist.
var ErrTradeNotFound = errors.New("trade not found")

// TradeStorage persists the append-only trade ledger. StoreTrade is the only
// creation path; SettleTrade is the only mutation and must succeed at most
// once per trade.
type TradeStorage interface {
	StoreTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	GetTrades(ctx context.Context, limit int) ([]models.Trade, error)
	// SettleTrade transitions MATCHED -> WON/LOST and records an optional
	// explanation. Returns ErrAlreadySettled if the trade left MATCHED
	// before, ErrTradeNotFound if the id is unknown.
	SettleTrade(ctx context.Context, id string, status models.TradeStatus, explanation string) error
	Close() error
}

// BaselineStorage pins the first observed back price per market line so
// drift keeps a stable reference point across polling cycles (and, with the
// Redis implementation, across feed-service restarts within a session).
type BaselineStorage interface {
	// EnsureBaseline records odds as the baseline for (source, marketID)
	// only if none exists yet, and returns the effective baseline.
	EnsureBaseline(ctx context.Context, source models.Source, marketID string, odds float64) (float64, error)
	Close() error
}

// RuleStorage holds the user rule set as one flat document,
// last-write-wins.
type RuleStorage interface {
	GetRules(ctx context.Context) ([]models.UserRule, error)
	SaveRules(ctx context.Context, rules []models.UserRule) error
}
