package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/dtiquant/internal/model"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (p ConnectionParams) connString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection and makes sure the schema exists
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.connString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trades (
			symbol TEXT NOT NULL,
			entry_date DATE NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			entry_indicator DOUBLE PRECISION NOT NULL,
			entry_seven_day DOUBLE PRECISION NOT NULL,
			exit_date DATE NOT NULL,
			exit_price DOUBLE PRECISION NOT NULL,
			exit_reason TEXT NOT NULL,
			pl_percent DOUBLE PRECISION NOT NULL,
			holding_days INTEGER NOT NULL,
			recorded_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (symbol, entry_date)
		)
	`)
	return err
}

// TradeRepository stores completed trades per symbol
type TradeRepository struct {
	db *DB
}

// NewTradeRepository wraps an open connection
func NewTradeRepository(db *DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// SaveTrades upserts the closed trades of a backtest; open trades are skipped.
// It returns how many rows were written.
func (r *TradeRepository) SaveTrades(ctx context.Context, symbol string, trades []model.Trade) (int, error) {
	closed := closedTrades(trades)
	if len(closed) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (
			symbol, entry_date, entry_price, entry_indicator, entry_seven_day,
			exit_date, exit_price, exit_reason, pl_percent, holding_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, entry_date)
		DO UPDATE SET
			entry_price = EXCLUDED.entry_price,
			entry_indicator = EXCLUDED.entry_indicator,
			entry_seven_day = EXCLUDED.entry_seven_day,
			exit_date = EXCLUDED.exit_date,
			exit_price = EXCLUDED.exit_price,
			exit_reason = EXCLUDED.exit_reason,
			pl_percent = EXCLUDED.pl_percent,
			holding_days = EXCLUDED.holding_days,
			recorded_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range closed {
		if _, err := stmt.ExecContext(ctx,
			symbol, t.EntryDate, t.EntryPrice, t.EntryIndicatorValue, t.EntrySevenDayValue,
			t.ExitDate, t.ExitPrice, string(t.ExitReason), t.PLPercent, t.HoldingDays,
		); err != nil {
			return 0, fmt.Errorf("insert trade %s: %w", t.EntryDate.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit trades: %w", err)
	}
	return len(closed), nil
}

// CompletedTrades loads the stored trades of a symbol entered on or after since, oldest first
func (r *TradeRepository) CompletedTrades(ctx context.Context, symbol string, since time.Time) ([]model.Trade, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			entry_date, entry_price, entry_indicator, entry_seven_day,
			exit_date, exit_price, exit_reason, pl_percent, holding_days
		FROM trades
		WHERE symbol = $1 AND entry_date >= $2
		ORDER BY entry_date
	`, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var reason string
		if err := rows.Scan(
			&t.EntryDate, &t.EntryPrice, &t.EntryIndicatorValue, &t.EntrySevenDayValue,
			&t.ExitDate, &t.ExitPrice, &reason, &t.PLPercent, &t.HoldingDays,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.ExitReason = model.ExitReason(reason)
		t.CurrentPrice = t.ExitPrice
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func closedTrades(trades []model.Trade) []model.Trade {
	out := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			out = append(out, t)
		}
	}
	return out
}
