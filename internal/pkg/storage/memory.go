package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

var _ TradeStorage = (*MemoryTradeStorage)(nil)

// MemoryTradeStorage keeps the ledger in process memory. Used when no
// postgres DSN is configured and in tests.
type MemoryTradeStorage struct {
	mu     sync.RWMutex
	trades map[string]models.Trade
	order  []string
}

func NewMemoryTradeStorage() *MemoryTradeStorage {
	return &MemoryTradeStorage{trades: make(map[string]models.Trade)}
}

func (s *MemoryTradeStorage) StoreTrade(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trades[trade.ID]; !exists {
		s.order = append(s.order, trade.ID)
	}
	s.trades[trade.ID] = *trade
	return nil
}

func (s *MemoryTradeStorage) GetTrade(_ context.Context, id string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[id]
	if !ok {
		return nil, ErrTradeNotFound
	}
	return &t, nil
}

func (s *MemoryTradeStorage) GetTrades(_ context.Context, limit int) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]models.Trade, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.trades[id])
	}
	// Newest first, matching the postgres ordering.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryTradeStorage) SettleTrade(_ context.Context, id string, status models.TradeStatus, explanation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return ErrTradeNotFound
	}
	if t.Status != models.TradeMatched {
		return ErrAlreadySettled
	}
	t.Status = status
	t.Explanation = explanation
	s.trades[id] = t
	return nil
}

func (s *MemoryTradeStorage) Close() error { return nil }

var _ BaselineStorage = (*MemoryBaselineStorage)(nil)

// MemoryBaselineStorage pins baselines in process memory.
type MemoryBaselineStorage struct {
	mu        sync.Mutex
	baselines map[string]float64
}

func NewMemoryBaselineStorage() *MemoryBaselineStorage {
	return &MemoryBaselineStorage{baselines: make(map[string]float64)}
}

func (s *MemoryBaselineStorage) EnsureBaseline(_ context.Context, source models.Source, marketID string, odds float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(source) + ":" + marketID
	if existing, ok := s.baselines[key]; ok {
		return existing, nil
	}
	s.baselines[key] = odds
	return odds, nil
}

func (s *MemoryBaselineStorage) Close() error { return nil }
