package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Feed     FeedConfig     `yaml:"feed"`
	Engine   EngineConfig   `yaml:"engine"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type FeedConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	Interval          time.Duration `yaml:"interval"`        // polling interval
	AdapterTimeout    time.Duration `yaml:"adapter_timeout"` // per-adapter fetch budget
	EnabledSources    []string      `yaml:"enabled_sources"`
	Betfair           BetfairConfig `yaml:"betfair"`
	Jeebet            JeebetConfig  `yaml:"jeebet"`
}

type BetfairConfig struct {
	BaseURL      string        `yaml:"base_url"`
	AppKey       string        `yaml:"app_key"`
	SessionToken string        `yaml:"session_token"`
	Timeout      time.Duration `yaml:"timeout"`
}

type JeebetConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ForwardURL    string        `yaml:"forward_url"` // optional forwarding prefix
	MirrorURL     string        `yaml:"mirror_url"`  // optional mirror to resolve base_url
	Username      string        `yaml:"username"`
	SessionCookie string        `yaml:"session_cookie"`
	Timeout       time.Duration `yaml:"timeout"`
}

type EngineConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	FeedURL           string        `yaml:"feed_url"` // feed-service base URL
	MinConsensusLevel int           `yaml:"min_consensus_level"`
	PanelSize         int           `yaml:"panel_size"`
	PulseTTL          time.Duration `yaml:"pulse_ttl"`
	UnitStake         float64       `yaml:"unit_stake"`
	DriftThreshold    float64       `yaml:"drift_threshold_percent"`
	RulesPath         string        `yaml:"rules_path"`
	Oracle            OracleConfig  `yaml:"oracle"`
}

type OracleConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	PulseModel      string        `yaml:"pulse_model"`
	StructuralModel string        `yaml:"structural_model"`
	Timeout         time.Duration `yaml:"timeout"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyEnvOverrides()
	config.applyDefaults()

	return &config, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BETFAIR_APP_KEY"); v != "" {
		c.Feed.Betfair.AppKey = v
	}
	if v := os.Getenv("BETFAIR_SESSION_TOKEN"); v != "" {
		c.Feed.Betfair.SessionToken = v
	}
	if v := os.Getenv("JEEBET_SESSION_COOKIE"); v != "" {
		c.Feed.Jeebet.SessionCookie = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		c.Engine.Oracle.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
}

// applyDefaults fills everything a first run can tolerate being absent.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Feed.Port == 0 {
		c.Feed.Port = 8080
	}
	if c.Feed.ReadHeaderTimeout <= 0 {
		c.Feed.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Feed.Interval <= 0 {
		c.Feed.Interval = 15 * time.Second
	}
	if c.Feed.AdapterTimeout <= 0 {
		c.Feed.AdapterTimeout = 20 * time.Second
	}
	if len(c.Feed.EnabledSources) == 0 {
		c.Feed.EnabledSources = []string{"synthetic"}
	}
	if c.Engine.Port == 0 {
		c.Engine.Port = 8081
	}
	if c.Engine.ReadHeaderTimeout <= 0 {
		c.Engine.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Engine.FeedURL == "" {
		c.Engine.FeedURL = "http://localhost:8080"
	}
	if c.Engine.MinConsensusLevel <= 0 {
		c.Engine.MinConsensusLevel = 2
	}
	if c.Engine.PanelSize <= 0 {
		c.Engine.PanelSize = 3
	}
	if c.Engine.PulseTTL <= 0 {
		c.Engine.PulseTTL = 5 * time.Minute
	}
	if c.Engine.UnitStake <= 0 {
		c.Engine.UnitStake = 100
	}
	if c.Engine.DriftThreshold <= 0 {
		c.Engine.DriftThreshold = 15.0
	}
	if c.Engine.RulesPath == "" {
		c.Engine.RulesPath = "rules.json"
	}
	if c.Engine.Oracle.BaseURL == "" {
		c.Engine.Oracle.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Engine.Oracle.PulseModel == "" {
		c.Engine.Oracle.PulseModel = "gemini-3-pro-preview"
	}
	if c.Engine.Oracle.StructuralModel == "" {
		c.Engine.Oracle.StructuralModel = "gemini-3-flash-preview"
	}
	if c.Engine.Oracle.Timeout <= 0 {
		c.Engine.Oracle.Timeout = 60 * time.Second
	}
	if c.Feed.Betfair.Timeout <= 0 {
		c.Feed.Betfair.Timeout = 30 * time.Second
	}
	if c.Feed.Betfair.BaseURL == "" {
		c.Feed.Betfair.BaseURL = "https://api.betfair.com/exchange/betting/rest/v1.0"
	}
	if c.Feed.Jeebet.Timeout <= 0 {
		c.Feed.Jeebet.Timeout = 30 * time.Second
	}
}
