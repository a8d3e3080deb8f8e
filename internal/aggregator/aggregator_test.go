package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
	"github.com/wicketwise/wicketwise/internal/sources"
)

type stubAdapter struct {
	name    models.Source
	matches []models.Match
	err     error
}

func (s *stubAdapter) Name() models.Source { return s.name }
func (s *stubAdapter) FetchLiveMatches(context.Context) ([]models.Match, error) {
	return s.matches, s.err
}

func stubMatch(id string, source models.Source, backOdds float64) models.Match {
	return models.Match{
		ID:     id,
		TeamA:  "India",
		TeamB:  "Australia",
		Status: models.StatusLive,
		MarketLines: []models.MarketLine{
			{ID: id + "_w", Type: models.MarketMatchWinner, BackOdds: backOdds, Source: source},
		},
	}
}

func TestCollect_PartialFailure(t *testing.T) {
	ok := &stubAdapter{name: models.SourceBetfair, matches: []models.Match{stubMatch("bf_1", models.SourceBetfair, 1.8)}}
	bad := &stubAdapter{name: models.SourceJeebet, err: errors.New("session expired")}

	agg := New([]sources.Adapter{ok, bad}, storage.NewMemoryBaselineStorage(), time.Second)
	got := agg.Collect(context.Background())

	if len(got) != 1 || got[0].ID != "bf_1" {
		t.Fatalf("one healthy source should still deliver: %+v", got)
	}
}

func TestCollect_AllFailServesFixture(t *testing.T) {
	bad := &stubAdapter{name: models.SourceBetfair, err: errors.New("down")}
	agg := New([]sources.Adapter{bad}, storage.NewMemoryBaselineStorage(), time.Second)

	got := agg.Collect(context.Background())
	if len(got) != 2 {
		t.Fatalf("fixture fallback: got %d matches, want 2", len(got))
	}
	for _, m := range got {
		for _, l := range m.MarketLines {
			if l.Source != models.SourceSynthetic {
				t.Errorf("fallback line %s source = %s", l.ID, l.Source)
			}
		}
	}
}

func TestCollect_EnforcesSourceTag(t *testing.T) {
	// Adapter mislabels its lines; the aggregator overwrites the tag.
	lying := &stubAdapter{name: models.SourceJeebet, matches: []models.Match{stubMatch("jb_1", models.SourceBetfair, 2.0)}}
	agg := New([]sources.Adapter{lying}, storage.NewMemoryBaselineStorage(), time.Second)

	got := agg.Collect(context.Background())
	if got[0].MarketLines[0].Source != models.SourceJeebet {
		t.Errorf("source tag = %s, want JEEBET", got[0].MarketLines[0].Source)
	}
}

func TestCollect_BaselineIsSetOnce(t *testing.T) {
	adapter := &stubAdapter{name: models.SourceBetfair, matches: []models.Match{stubMatch("bf_1", models.SourceBetfair, 2.0)}}
	agg := New([]sources.Adapter{adapter}, storage.NewMemoryBaselineStorage(), time.Second)

	first := agg.Collect(context.Background())
	if first[0].MarketLines[0].InitialOdds != 2.0 {
		t.Fatalf("first cycle baseline = %v", first[0].MarketLines[0].InitialOdds)
	}

	// The market moves; the pinned baseline must not.
	adapter.matches = []models.Match{stubMatch("bf_1", models.SourceBetfair, 2.4)}
	second := agg.Collect(context.Background())
	line := second[0].MarketLines[0]
	if line.BackOdds != 2.4 {
		t.Errorf("current odds = %v, want 2.4", line.BackOdds)
	}
	if line.InitialOdds != 2.0 {
		t.Errorf("baseline moved: %v", line.InitialOdds)
	}
}

func TestMatches_SourceFilter(t *testing.T) {
	bf := &stubAdapter{name: models.SourceBetfair, matches: []models.Match{stubMatch("x1", models.SourceBetfair, 1.8)}}
	jb := &stubAdapter{name: models.SourceJeebet, matches: []models.Match{stubMatch("x2", models.SourceJeebet, 2.2)}}
	agg := New([]sources.Adapter{bf, jb}, storage.NewMemoryBaselineStorage(), time.Second)
	agg.Collect(context.Background())

	all := agg.Matches("")
	if len(all) != 2 {
		t.Fatalf("unfiltered: got %d matches", len(all))
	}
	only := agg.Matches(models.SourceJeebet)
	if len(only) != 1 || only[0].ID != "x2" {
		t.Errorf("filtered: %+v", only)
	}
}
