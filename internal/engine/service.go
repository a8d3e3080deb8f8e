package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wicketwise/wicketwise/internal/consensus"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/drift"
	"github.com/wicketwise/wicketwise/internal/pkg/ledger"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
)

// ErrMatchNotFound is returned when a match id is not in the current feed
// snapshot.
var ErrMatchNotFound = fmt.Errorf("match not found")

// MarketDrift is one market line's movement against its session baseline.
type MarketDrift struct {
	MarketID string          `json:"market_id"`
	Label    string          `json:"label"`
	Current  float64         `json:"current_odds"`
	Initial  float64         `json:"initial_odds"`
	Movement *drift.Movement `json:"movement"`
}

// Service ties the engine side together: the feed snapshot, the consensus
// engine, the rule store, drift reads and the trade ledger.
type Service struct {
	feed           *FeedClient
	engine         *consensus.Engine
	ledger         *ledger.Ledger
	rules          storage.RuleStorage
	driftThreshold float64

	mu       sync.RWMutex
	snapshot []models.Match
	results  map[string]*consensus.Result // latest analysis per match
	analyses map[string]int               // completed analysis rounds per match
}

func NewService(cfg *config.EngineConfig, feed *FeedClient, eng *consensus.Engine, led *ledger.Ledger, rules storage.RuleStorage) *Service {
	return &Service{
		feed:           feed,
		engine:         eng,
		ledger:         led,
		rules:          rules,
		driftThreshold: cfg.DriftThreshold,
		results:        make(map[string]*consensus.Result),
		analyses:       make(map[string]int),
	}
}

// RefreshMatches pulls a fresh snapshot from the feed service.
func (s *Service) RefreshMatches(ctx context.Context) ([]models.Match, error) {
	matches, err := s.feed.GetMatches(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.snapshot = matches
	s.mu.Unlock()
	return matches, nil
}

// Match returns one match from the latest snapshot, refreshing it when the
// snapshot is empty or stale for the id.
func (s *Service) Match(ctx context.Context, matchID string) (*models.Match, error) {
	s.mu.RLock()
	for i := range s.snapshot {
		if s.snapshot[i].ID == matchID {
			m := s.snapshot[i]
			m.AnalysesUsed = s.analyses[matchID]
			s.mu.RUnlock()
			return &m, nil
		}
	}
	s.mu.RUnlock()

	matches, err := s.RefreshMatches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].ID == matchID {
			m := matches[i]
			s.mu.RLock()
			m.AnalysesUsed = s.analyses[matchID]
			s.mu.RUnlock()
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
}

// Matches returns the latest snapshot, fetching one if none is held yet.
// Each match is stamped with its analysis usage count.
func (s *Service) Matches(ctx context.Context) ([]models.Match, error) {
	s.mu.RLock()
	if len(s.snapshot) > 0 {
		out := make([]models.Match, len(s.snapshot))
		copy(out, s.snapshot)
		for i := range out {
			out[i].AnalysesUsed = s.analyses[out[i].ID]
		}
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	matches, err := s.RefreshMatches(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	for i := range matches {
		matches[i].AnalysesUsed = s.analyses[matches[i].ID]
	}
	s.mu.RUnlock()
	return matches, nil
}

// Analyze runs a consensus analysis round for one match. userContext is
// free-text operator knowledge forwarded to the oracle. Every completed
// round, signal or not, counts against the match's analysis usage.
func (s *Service) Analyze(ctx context.Context, matchID, userContext string) (*consensus.Result, error) {
	match, err := s.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	result, err := s.engine.Analyze(ctx, match, userContext, rules)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.analyses[matchID]++
	if result != nil {
		s.results[matchID] = result
	}
	s.mu.Unlock()
	return result, nil
}

// Edges returns the edges from the latest analysis of every match.
func (s *Service) Edges() []models.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Edge
	for _, r := range s.results {
		out = append(out, r.Edges...)
	}
	return out
}

// Drift reports every line's movement from its session baseline for one
// match.
func (s *Service) Drift(ctx context.Context, matchID string) ([]MarketDrift, error) {
	match, err := s.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	out := make([]MarketDrift, 0, len(match.MarketLines))
	for _, l := range match.MarketLines {
		out = append(out, MarketDrift{
			MarketID: l.ID,
			Label:    l.Label,
			Current:  l.BackOdds,
			Initial:  l.InitialOdds,
			Movement: drift.ComputeWith(l.BackOdds, l.InitialOdds, s.driftThreshold),
		})
	}
	return out, nil
}

// Rules returns the stored rule set.
func (s *Service) Rules(ctx context.Context) ([]models.UserRule, error) {
	return s.rules.GetRules(ctx)
}

// SaveRules replaces the stored rule set.
func (s *Service) SaveRules(ctx context.Context, rules []models.UserRule) error {
	return s.rules.SaveRules(ctx, rules)
}

// RecordTrade books a paper trade against a market line. The edge backing
// the trade is looked up from the latest analysis when present.
func (s *Service) RecordTrade(ctx context.Context, matchID, marketID string, side models.TradeSide) (*models.Trade, error) {
	match, err := s.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	line := match.Line(marketID)
	if line == nil {
		return nil, fmt.Errorf("market %s not found on match %s", marketID, matchID)
	}

	edge := &models.Edge{MatchID: matchID, MarketID: marketID}
	s.mu.RLock()
	if r, ok := s.results[matchID]; ok {
		for i := range r.Edges {
			if r.Edges[i].MarketID == marketID {
				edge = &r.Edges[i]
				break
			}
		}
	}
	s.mu.RUnlock()

	return s.ledger.Record(ctx, match, edge, line, side)
}

// SettleTrade finalizes a trade as WON or LOST.
func (s *Service) SettleTrade(ctx context.Context, tradeID string, status models.TradeStatus, explanation string) error {
	return s.ledger.Settle(ctx, tradeID, status, explanation)
}

// Trades returns recent ledger entries.
func (s *Service) Trades(ctx context.Context, limit int) ([]models.Trade, error) {
	return s.ledger.History(ctx, limit)
}

// LastAnalyzed reports when a match was last analyzed, zero if never.
func (s *Service) LastAnalyzed(matchID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[matchID]; ok {
		return r.CreatedAt
	}
	return time.Time{}
}
