package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
	"github.com/wicketwise/wicketwise/internal/sources"
	"github.com/wicketwise/wicketwise/internal/sources/synthetic"
)

// Aggregator fans a fetch out to every configured source adapter, pins
// drift baselines on the collected lines and keeps the latest snapshot for
// the HTTP layer. A failing adapter costs its own matches, never the cycle.
type Aggregator struct {
	adapters       []sources.Adapter
	baselines      storage.BaselineStorage
	adapterTimeout time.Duration

	mu       sync.RWMutex
	snapshot []models.Match
	updated  time.Time
}

func New(adapters []sources.Adapter, baselines storage.BaselineStorage, adapterTimeout time.Duration) *Aggregator {
	return &Aggregator{
		adapters:       adapters,
		baselines:      baselines,
		adapterTimeout: adapterTimeout,
	}
}

// Collect runs one aggregation cycle and returns the new snapshot. When
// every source comes back empty the fixture dataset is served so the
// pipeline downstream always has something to chew on.
func (a *Aggregator) Collect(ctx context.Context) []models.Match {
	type result struct {
		source  models.Source
		matches []models.Match
		err     error
	}

	results := make(chan result, len(a.adapters))
	var wg sync.WaitGroup
	for _, adapter := range a.adapters {
		wg.Add(1)
		go func(ad sources.Adapter) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
			defer cancel()
			matches, err := ad.FetchLiveMatches(fetchCtx)
			results <- result{source: ad.Name(), matches: matches, err: err}
		}(adapter)
	}
	wg.Wait()
	close(results)

	var collected []models.Match
	for r := range results {
		if r.err != nil {
			slog.Warn("Source fetch failed", "source", r.source, "error", r.err)
			continue
		}
		for _, m := range r.matches {
			enforceSourceTag(&m, r.source)
			collected = append(collected, m)
		}
		slog.Debug("Source fetch ok", "source", r.source, "matches", len(r.matches))
	}

	if len(collected) == 0 {
		slog.Warn("All sources empty, serving fixture dataset")
		collected = synthetic.Fixed()
	}

	a.pinBaselines(ctx, collected)

	sort.Slice(collected, func(i, j int) bool { return collected[i].ID < collected[j].ID })

	a.mu.Lock()
	a.snapshot = collected
	a.updated = time.Now()
	a.mu.Unlock()
	return collected
}

// pinBaselines records the first observed back price per (source, line) and
// stamps it on the line. The stored value wins over later observations, so
// InitialOdds never moves within a session.
func (a *Aggregator) pinBaselines(ctx context.Context, matches []models.Match) {
	if a.baselines == nil {
		return
	}
	for i := range matches {
		for j := range matches[i].MarketLines {
			l := &matches[i].MarketLines[j]
			baseline, err := a.baselines.EnsureBaseline(ctx, l.Source, l.ID, l.BackOdds)
			if err != nil {
				slog.Warn("Baseline pin failed", "market_id", l.ID, "error", err)
				continue
			}
			l.InitialOdds = baseline
		}
	}
}

// Matches returns the latest snapshot, optionally filtered by source.
func (a *Aggregator) Matches(source models.Source) []models.Match {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.Match, 0, len(a.snapshot))
	for _, m := range a.snapshot {
		if source == "" {
			out = append(out, m)
			continue
		}
		filtered := m
		filtered.MarketLines = nil
		for _, l := range m.MarketLines {
			if l.Source == source {
				filtered.MarketLines = append(filtered.MarketLines, l)
			}
		}
		if len(filtered.MarketLines) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

// LastUpdated reports when the snapshot was last refreshed.
func (a *Aggregator) LastUpdated() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.updated
}

func enforceSourceTag(m *models.Match, source models.Source) {
	for i := range m.MarketLines {
		m.MarketLines[i].Source = source
	}
}
