package storage

import (
	"context"
	"database/sql"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/issvwap/internal/domain/models"
)

// TradesRepository defines the contract of the write-only trade archive.
type TradesRepository interface {
	InsertTradesBatch(ctx context.Context, sessionDate time.Time, symbol, board string, trades []models.Trade) (int64, error)
	DeleteTradesBefore(ctx context.Context, date time.Time) (int64, error)
}

type tradesRepository struct {
	db *sql.DB
}

func NewTradesRepository(db *sql.DB) TradesRepository {
	return &tradesRepository{db: db}
}

const (
	createStageSQL = `CREATE TEMP TABLE iss_trades_stage (LIKE iss_trades INCLUDING DEFAULTS) ON COMMIT DROP`

	mergeStageSQL = `
		INSERT INTO iss_trades (session_date, symbol, board, trade_no, trade_time, price, quantity, value, buy_sell)
		SELECT session_date, symbol, board, trade_no, trade_time, price, quantity, value, buy_sell
		FROM iss_trades_stage
		ON CONFLICT (session_date, symbol, board, trade_no) DO NOTHING`
)

// InsertTradesBatch archives one page of trades in a single transaction.
//
// Rows are COPYed into a transaction-scoped staging table and merged with
// ON CONFLICT DO NOTHING, so a page fetched again after a registry reset is not duplicated.
// Returns the number of rows actually inserted.
func (r *tradesRepository) InsertTradesBatch(ctx context.Context, sessionDate time.Time, symbol, board string, trades []models.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, createStageSQL); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"iss_trades_stage",
		"session_date",
		"symbol",
		"board",
		"trade_no",
		"trade_time",
		"price",
		"quantity",
		"value",
		"buy_sell",
	))
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	// zero VALUE / BUYSELL are stored as NULL
	toNullDecimal := func(rec models.Trade) interface{} {
		if rec.Value.IsZero() {
			return nil
		}
		return rec.Value.String()
	}
	toNullString := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}

	for _, rec := range trades {
		if _, err := stmt.ExecContext(ctx,
			sessionDate,
			symbol,
			board,
			rec.TradeNo,
			models.FormatClock(rec.TradeTime),
			rec.Price.String(),
			rec.Quantity,
			toNullDecimal(rec),
			toNullString(rec.BuySell),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	res, err := tx.ExecContext(ctx, mergeStageSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	inserted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// DeleteTradesBefore removes archived trades of sessions older than date.
func (r *tradesRepository) DeleteTradesBefore(ctx context.Context, date time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM iss_trades WHERE session_date < $1`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
