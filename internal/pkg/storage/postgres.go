package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/wicketwise/wicketwise/internal/pkg/config"
	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

var _ TradeStorage = (*PostgresTradeStorage)(nil)

// PostgresTradeStorage stores ledger trades in PostgreSQL.
type PostgresTradeStorage struct {
	db *sql.DB
}

// NewPostgresTradeStorage opens the connection and bootstraps the schema.
func NewPostgresTradeStorage(cfg *config.PostgresConfig) (*PostgresTradeStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresTradeStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL trade storage initialized")
	return s, nil
}

func (s *PostgresTradeStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS trades (
		id VARCHAR(64) PRIMARY KEY,
		match_id VARCHAR(200) NOT NULL,
		match_name VARCHAR(500) NOT NULL,
		market_label VARCHAR(500) NOT NULL,
		side VARCHAR(8) NOT NULL,
		odds DECIMAL(10, 4) NOT NULL,
		stake DECIMAL(12, 2) NOT NULL,
		rule_id VARCHAR(200) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		source_node VARCHAR(100) NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		settled_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_match_id ON trades(match_id);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresTradeStorage) StoreTrade(ctx context.Context, trade *models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, match_id, match_name, market_label, side, odds, stake, rule_id, status, source_node, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		trade.ID, trade.MatchID, trade.MatchName, trade.MarketLabel, string(trade.Side),
		trade.Odds, trade.Stake, trade.RuleID, string(trade.Status), trade.SourceNode,
		trade.Explanation, trade.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to store trade: %w", err)
	}
	return nil
}

func (s *PostgresTradeStorage) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, match_id, match_name, market_label, side, odds, stake, rule_id, status, source_node, explanation, created_at
		FROM trades WHERE id = $1`, id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

func (s *PostgresTradeStorage) GetTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, match_id, match_name, market_label, side, odds, stake, rule_id, status, source_node, explanation, created_at
		FROM trades ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// SettleTrade uses the status guard in the WHERE clause: zero affected rows
// on an existing trade means it already left MATCHED.
func (s *PostgresTradeStorage) SettleTrade(ctx context.Context, id string, status models.TradeStatus, explanation string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades SET status = $2, explanation = $3, settled_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, string(status), explanation, string(models.TradeMatched))
	if err != nil {
		return fmt.Errorf("failed to settle trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read settle result: %w", err)
	}
	if n == 0 {
		if _, err := s.GetTrade(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySettled
	}
	return nil
}

func (s *PostgresTradeStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (*models.Trade, error) {
	var t models.Trade
	var side, status string
	if err := r.Scan(&t.ID, &t.MatchID, &t.MatchName, &t.MarketLabel, &side, &t.Odds,
		&t.Stake, &t.RuleID, &status, &t.SourceNode, &t.Explanation, &t.Timestamp); err != nil {
		return nil, err
	}
	t.Side = models.TradeSide(side)
	t.Status = models.TradeStatus(status)
	return &t, nil
}
