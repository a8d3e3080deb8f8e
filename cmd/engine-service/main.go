package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wicketwise/wicketwise/internal/alerts"
	"github.com/wicketwise/wicketwise/internal/api"
	"github.com/wicketwise/wicketwise/internal/consensus"
	"github.com/wicketwise/wicketwise/internal/engine"
	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/ledger"
	"github.com/wicketwise/wicketwise/internal/pkg/logging"
	"github.com/wicketwise/wicketwise/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Engine service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", envOr("CONFIG_PATH", defaultConfigPath), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetupLogger(&cfg.Logging, "engine-service")
	slog.Info("Config loaded", "path", *configPath)

	trades, err := buildTradeStorage(cfg)
	if err != nil {
		return err
	}
	defer trades.Close()

	notifier := buildNotifier(cfg)
	defer notifier.Stop()

	oracle := consensus.NewGeminiOracle(&cfg.Engine.Oracle)
	eng := consensus.NewEngine(oracle, notifier,
		cfg.Engine.MinConsensusLevel, cfg.Engine.PanelSize, cfg.Engine.PulseTTL)

	svc := engine.NewService(&cfg.Engine,
		engine.NewFeedClient(cfg.Engine.FeedURL),
		eng,
		ledger.New(trades, cfg.Engine.UnitStake),
		storage.NewFileRuleStore(cfg.Engine.RulesPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	engine.NewHTTPServer(svc).Run(ctx, api.AddrFor(cfg.Engine.Port), cfg.Engine.ReadHeaderTimeout)

	slog.Info("Engine service running",
		"feed_url", cfg.Engine.FeedURL,
		"min_consensus", cfg.Engine.MinConsensusLevel,
		"panel_size", cfg.Engine.PanelSize)

	<-ctx.Done()
	slog.Info("Engine service stopped")
	return nil
}

func buildTradeStorage(cfg *config.Config) (storage.TradeStorage, error) {
	if cfg.Postgres.DSN == "" {
		slog.Info("No postgres configured, using in-memory trade ledger")
		return storage.NewMemoryTradeStorage(), nil
	}
	return storage.NewPostgresTradeStorage(&cfg.Postgres)
}

func buildNotifier(cfg *config.Config) alerts.Notifier {
	if cfg.Telegram.BotToken == "" {
		slog.Info("No telegram configured, alerts disabled")
		return alerts.NoopNotifier{}
	}
	if n := alerts.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID); n != nil {
		return n
	}
	slog.Warn("Telegram notifier failed to start, alerts disabled")
	return alerts.NoopNotifier{}
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
