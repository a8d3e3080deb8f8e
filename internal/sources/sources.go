package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

// Adapter fetches live cricket matches from one upstream source and returns
// them in canonical form, every market line tagged with the adapter's source
// and classified.
type Adapter interface {
	Name() models.Source
	FetchLiveMatches(ctx context.Context) ([]models.Match, error)
}

// Factory builds an adapter from config.
type Factory func(cfg *config.Config) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("sources: empty name in Register")
	}
	if f == nil {
		panic("sources: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("sources: duplicate registration for " + n)
	}
	registry[n] = f
}

func FactoryByName(name string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs adapters for every enabled source name.
func Build(cfg *config.Config, names []string) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		f, ok := FactoryByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q (available: %v)", name, AvailableNames())
		}
		a, err := f(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build source %q: %w", name, err)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
