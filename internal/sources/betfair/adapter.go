package betfair

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/classify"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/validation"
	"github.com/wicketwise/wicketwise/internal/sources"
)

const maxMarketsPerEvent = 25

func init() {
	sources.Register("betfair", func(cfg *config.Config) (sources.Adapter, error) {
		return NewAdapter(&cfg.Feed.Betfair)
	})
}

// Adapter turns the exchange's event/catalogue/book API into canonical
// matches. The exchange exposes no scoreboard, so scores stay empty and the
// match reads as in-play via its status.
type Adapter struct {
	client *HTTPClient
}

func NewAdapter(cfg *config.BetfairConfig) (*Adapter, error) {
	client, err := NewHTTPClient(cfg.BaseURL, cfg.AppKey, cfg.SessionToken, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("betfair: %w", err)
	}
	return &Adapter{client: client}, nil
}

func (a *Adapter) Name() models.Source {
	return models.SourceBetfair
}

func (a *Adapter) FetchLiveMatches(ctx context.Context) ([]models.Match, error) {
	events, err := a.client.ListCricketEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("betfair: list events: %w", err)
	}

	matches := make([]models.Match, 0, len(events))
	for _, ev := range events {
		m, err := a.fetchMatch(ctx, ev)
		if err != nil {
			slog.Warn("Skipping exchange event", "event_id", ev.Event.ID, "error", err)
			continue
		}
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func (a *Adapter) fetchMatch(ctx context.Context, ev eventResult) (*models.Match, error) {
	catalogues, err := a.client.ListMarketCatalogue(ctx, ev.Event.ID, maxMarketsPerEvent)
	if err != nil {
		return nil, fmt.Errorf("list catalogue: %w", err)
	}
	if len(catalogues) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(catalogues))
	byID := make(map[string]marketCatalogue, len(catalogues))
	for _, c := range catalogues {
		ids = append(ids, c.MarketID)
		byID[c.MarketID] = c
	}

	books, err := a.client.ListMarketBook(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list book: %w", err)
	}

	teamA, teamB := splitEventName(ev.Event.Name)
	now := time.Now()
	match := &models.Match{
		ID:        "bf_" + ev.Event.ID,
		TeamA:     validation.SanitizeTeamName(teamA),
		TeamB:     validation.SanitizeTeamName(teamB),
		ScoreA:    "Live",
		ScoreB:    "",
		Status:    models.StatusLive,
		Format:    guessFormat(ev.Event.Name),
		Venue:     validation.SanitizeString(ev.Event.Venue),
		UpdatedAt: now,
	}

	for _, book := range books {
		if book.Status == "CLOSED" {
			continue
		}
		cat, ok := byID[book.MarketID]
		if !ok {
			continue
		}
		line := buildLine(cat, book, now)
		if line == nil {
			continue
		}
		match.MarketLines = append(match.MarketLines, *line)
	}

	if len(match.MarketLines) == 0 {
		return nil, nil
	}
	return match, nil
}

// buildLine collapses a market book to one line using the best available
// back and lay prices across active runners.
func buildLine(cat marketCatalogue, book marketBook, now time.Time) *models.MarketLine {
	var bestBack, bestLay priceSize
	for _, r := range book.Runners {
		if r.Status != "" && r.Status != "ACTIVE" {
			continue
		}
		if len(r.EX.AvailableToBack) > 0 && r.EX.AvailableToBack[0].Price > bestBack.Price {
			bestBack = r.EX.AvailableToBack[0]
		}
		if len(r.EX.AvailableToLay) > 0 && (bestLay.Price == 0 || r.EX.AvailableToLay[0].Price < bestLay.Price) {
			bestLay = r.EX.AvailableToLay[0]
		}
	}
	if bestBack.Price <= 1.0 {
		return nil
	}

	marketType := mapMarketType(cat.Description.MarketType, cat.MarketName)
	return &models.MarketLine{
		ID:             "bf_" + book.MarketID,
		Type:           marketType,
		Label:          validation.SanitizeString(cat.MarketName),
		Classification: classify.Classify(marketType, bestBack.Price),
		BackOdds:       bestBack.Price,
		LayOdds:        bestLay.Price,
		TotalMatched:   book.TotalMatched,
		BackLiquidity:  bestBack.Size,
		LayLiquidity:   bestLay.Size,
		Source:         models.SourceBetfair,
		UpdatedAt:      now,
	}
}

// mapMarketType normalizes exchange market type codes. Codes the pipeline
// has no tier for fall through as WICKET_NEXT only when named so, otherwise
// keep the raw code and let classification void them.
func mapMarketType(code, name string) models.MarketType {
	switch code {
	case "MATCH_ODDS":
		return models.MarketMatchWinner
	case "INNINGS_RUNS", "1ST_INNINGS_RUNS", "2ND_INNINGS_RUNS":
		return models.MarketInningsRuns
	case "SESSION_RUNS":
		return models.MarketSessionRuns
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "powerplay"):
		return models.MarketPowerplay
	case strings.Contains(lower, "session"):
		return models.MarketSessionRuns
	case strings.Contains(lower, "innings runs"):
		return models.MarketInningsRuns
	case strings.Contains(lower, "wicket"):
		return models.MarketWicketNext
	}
	return models.MarketType(code)
}

func splitEventName(name string) (string, string) {
	for _, sep := range []string{" v ", " vs ", " V "} {
		if i := strings.Index(name, sep); i > 0 {
			return name[:i], name[i+len(sep):]
		}
	}
	return name, ""
}

func guessFormat(name string) models.MatchFormat {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "t20"), strings.Contains(lower, "twenty20"):
		return models.FormatT20
	case strings.Contains(lower, "test"):
		return models.FormatTest
	default:
		return models.FormatODI
	}
}
