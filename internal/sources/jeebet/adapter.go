package jeebet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/classify"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/validation"
	"github.com/wicketwise/wicketwise/internal/sources"
)

func init() {
	sources.Register("jeebet", func(cfg *config.Config) (sources.Adapter, error) {
		return NewAdapter(&cfg.Feed.Jeebet)
	})
}

// feedMatch is the bookmaker's live feed shape. It is close to canonical
// but its classification and source tags are not trusted.
type feedMatch struct {
	ID      string       `json:"id"`
	TeamA   string       `json:"team_a"`
	TeamB   string       `json:"team_b"`
	ScoreA  string       `json:"score_a"`
	ScoreB  string       `json:"score_b"`
	Status  string       `json:"status"`
	Format  string       `json:"format"`
	Venue   string       `json:"venue"`
	Overs   string       `json:"overs"`
	Markets []feedMarket `json:"markets"`
}

type feedMarket struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Label        string  `json:"label"`
	LineValue    float64 `json:"line_value"`
	BackOdds     float64 `json:"back_odds"`
	LayOdds      float64 `json:"lay_odds"`
	TotalMatched float64 `json:"total_matched"`
}

// Adapter wraps the scraped bookmaker feed. Everything the feed claims
// about risk tiers is discarded and recomputed locally.
type Adapter struct {
	client *HTTPClient
}

func NewAdapter(cfg *config.JeebetConfig) (*Adapter, error) {
	client, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("jeebet: %w", err)
	}
	return &Adapter{client: client}, nil
}

func (a *Adapter) Name() models.Source {
	return models.SourceJeebet
}

func (a *Adapter) FetchLiveMatches(ctx context.Context) ([]models.Match, error) {
	body, err := a.client.FetchLiveFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("jeebet: %w", err)
	}

	var feed []feedMatch
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("jeebet: failed to parse feed: %w", err)
	}

	now := time.Now()
	matches := make([]models.Match, 0, len(feed))
	for _, fm := range feed {
		m := models.Match{
			ID:        "jb_" + fm.ID,
			TeamA:     validation.SanitizeTeamName(fm.TeamA),
			TeamB:     validation.SanitizeTeamName(fm.TeamB),
			ScoreA:    validation.SanitizeString(fm.ScoreA),
			ScoreB:    validation.SanitizeString(fm.ScoreB),
			Status:    mapStatus(fm.Status),
			Format:    models.MatchFormat(fm.Format),
			Venue:     validation.SanitizeString(fm.Venue),
			Overs:     validation.SanitizeString(fm.Overs),
			UpdatedAt: now,
		}
		for _, mk := range fm.Markets {
			if mk.BackOdds <= 1.0 {
				continue
			}
			marketType := models.MarketType(mk.Type)
			m.MarketLines = append(m.MarketLines, models.MarketLine{
				ID:             "jb_" + mk.ID,
				Type:           marketType,
				Label:          validation.SanitizeString(mk.Label),
				Classification: classify.Classify(marketType, mk.BackOdds),
				LineValue:      mk.LineValue,
				BackOdds:       mk.BackOdds,
				LayOdds:        mk.LayOdds,
				TotalMatched:   mk.TotalMatched,
				Source:         models.SourceJeebet,
				UpdatedAt:      now,
			})
		}
		if len(m.MarketLines) > 0 {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func mapStatus(s string) models.MatchStatus {
	switch s {
	case "LIVE", "live", "in_play":
		return models.StatusLive
	case "COMPLETED", "completed", "finished":
		return models.StatusCompleted
	default:
		return models.StatusUpcoming
	}
}
