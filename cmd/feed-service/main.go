package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wicketwise/wicketwise/internal/aggregator"
	"github.com/wicketwise/wicketwise/internal/api"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/logging"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
	"github.com/wicketwise/wicketwise/internal/sources"

	// Register all source adapters via init().
	_ "github.com/wicketwise/wicketwise/internal/sources/betfair"
	_ "github.com/wicketwise/wicketwise/internal/sources/jeebet"
	_ "github.com/wicketwise/wicketwise/internal/sources/synthetic"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Feed service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", envOr("CONFIG_PATH", defaultConfigPath), "path to config file")
	sourcesFlag := flag.String("sources", "", "override enabled sources (comma separated)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetupLogger(&cfg.Logging, "feed-service")
	slog.Info("Config loaded", "path", *configPath)

	enabled := cfg.Feed.EnabledSources
	if *sourcesFlag != "" {
		enabled = strings.Split(*sourcesFlag, ",")
	}

	adapters, err := sources.Build(cfg, enabled)
	if err != nil {
		return err
	}
	slog.Info("Sources configured", "enabled", strings.Join(enabled, ", "), "available", strings.Join(sources.AvailableNames(), ", "))

	baselines := buildBaselineStorage(cfg)
	defer baselines.Close()

	agg := aggregator.New(adapters, baselines, cfg.Feed.AdapterTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	api.NewServer(agg).Run(ctx, api.AddrFor(cfg.Feed.Port), cfg.Feed.ReadHeaderTimeout)

	slog.Info("Starting aggregation loop", "interval", cfg.Feed.Interval)
	runLoop(ctx, agg, cfg.Feed.Interval)
	slog.Info("Feed service stopped")
	return nil
}

// runLoop collects on a fixed cadence. A failing cycle logs and waits for
// the next tick; it never takes the service down.
func runLoop(ctx context.Context, agg *aggregator.Aggregator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	matches := agg.Collect(ctx)
	slog.Info("Initial collection complete", "matches", len(matches))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			matches := agg.Collect(ctx)
			slog.Debug("Collection cycle complete", "matches", len(matches))
		}
	}
}

func buildBaselineStorage(cfg *config.Config) storage.BaselineStorage {
	if cfg.Redis.Addr == "" {
		slog.Info("No redis configured, using in-memory baselines")
		return storage.NewMemoryBaselineStorage()
	}
	s, err := storage.NewRedisBaselineStorage(&cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory baselines", "error", err)
		return storage.NewMemoryBaselineStorage()
	}
	return s
}

func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
