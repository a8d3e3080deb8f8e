package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/classify"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/sources"
)

func init() {
	sources.Register("synthetic", func(*config.Config) (sources.Adapter, error) {
		return NewAdapter(), nil
	})
}

// Adapter serves a deterministic fixture feed. It exists so the pipeline
// runs end to end without any upstream credentials, and doubles as the
// fallback when every real source fails. Each fetch nudges prices and
// advances overs so downstream drift and consensus logic see movement.
type Adapter struct {
	mu   sync.Mutex
	rng  *rand.Rand
	tick int
}

func NewAdapter() *Adapter {
	return &Adapter{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (a *Adapter) Name() models.Source {
	return models.SourceSynthetic
}

func (a *Adapter) FetchLiveMatches(_ context.Context) ([]models.Match, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tick++

	matches := Fixed()
	for i := range matches {
		m := &matches[i]
		if m.Status == models.StatusLive {
			m.Overs = advanceOvers(m.Overs, a.tick)
		}
		for j := range m.MarketLines {
			line := &m.MarketLines[j]
			// Odds walk within a few percent of the fixture price.
			drift := 1 + (a.rng.Float64()-0.5)*0.06
			line.BackOdds = round2(line.BackOdds * drift)
			line.LayOdds = round2(line.BackOdds + 0.02 + a.rng.Float64()*0.04)
			line.Classification = classify.Classify(line.Type, line.BackOdds)
			line.UpdatedAt = time.Now()
		}
	}
	return matches, nil
}

// Fixed returns the fixture dataset at its base prices. Deterministic and
// freshly allocated on every call.
func Fixed() []models.Match {
	now := time.Now()
	return []models.Match{
		{
			ID:            "m1",
			TeamA:         "India",
			TeamB:         "Australia",
			ScoreA:        "145/3",
			ScoreB:        "",
			Status:        models.StatusLive,
			Format:        models.FormatT20,
			Venue:         "Wankhede Stadium, Mumbai",
			Overs:         "16.2",
			StartingOddsA: 1.65,
			StartingOddsB: 2.30,
			UpdatedAt:     now,
			MarketLines: []models.MarketLine{
				line("ml1_1", models.MarketMatchWinner, "Match Odds: India", 0, 1.72, 1.74, 250000, now),
				line("ml1_2", models.MarketInningsRuns, "1st Innings Runs: IND Over 185.5", 185.5, 1.95, 2.00, 42000, now),
				line("ml1_3", models.MarketOverRuns20, "Runs at 20 Overs: Over 182.5", 182.5, 1.88, 1.92, 18500, now),
			},
		},
		{
			ID:            "m2",
			TeamA:         "England",
			TeamB:         "South Africa",
			ScoreA:        "245/6",
			ScoreB:        "",
			Status:        models.StatusLive,
			Format:        models.FormatODI,
			Venue:         "Lord's, London",
			Overs:         "42.3",
			StartingOddsA: 1.90,
			StartingOddsB: 1.95,
			UpdatedAt:     now,
			MarketLines: []models.MarketLine{
				line("ml2_1", models.MarketMatchWinner, "Match Odds: England", 0, 1.55, 1.58, 410000, now),
				line("ml2_2", models.MarketSessionRuns, "Session Runs 40-45 Ov: Over 38.5", 38.5, 1.90, 1.95, 9800, now),
				line("ml2_3", models.MarketPowerplay, "Powerplay 3 Runs: Over 52.5", 52.5, 2.10, 2.18, 7200, now),
			},
		},
	}
}

func line(id string, t models.MarketType, label string, lineValue, back, lay, matched float64, now time.Time) models.MarketLine {
	return models.MarketLine{
		ID:             id,
		Type:           t,
		Label:          label,
		Classification: classify.Classify(t, back),
		LineValue:      lineValue,
		BackOdds:       back,
		LayOdds:        lay,
		TotalMatched:   matched,
		BackLiquidity:  matched * 0.02,
		LayLiquidity:   matched * 0.018,
		Source:         models.SourceSynthetic,
		UpdatedAt:      now,
	}
}

// advanceOvers walks the over counter one ball per tick, rolling the over
// at six balls.
func advanceOvers(overs string, ticks int) string {
	var over, ball int
	if _, err := fmt.Sscanf(overs, "%d.%d", &over, &ball); err != nil {
		return overs
	}
	total := over*6 + ball + ticks
	return fmt.Sprintf("%d.%d", total/6, total%6)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
