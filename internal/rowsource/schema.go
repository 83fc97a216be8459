package rowsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"go.uber.org/zap"
)

const insertBatchSize = 500

// Trader associates a trader with its strategy.
type Trader struct {
	ID         string
	StrategyID string
}

// EnsureSchema creates the trader and PnL log tables when they do not exist.
// Dates are stored as YYYYMMDD text so that range filters compare lexicographically.
func (s *SQLRowSource) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				"Id" TEXT PRIMARY KEY,
				"StrategyId" TEXT NOT NULL
			)`, s.traderTable),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				"Date" TEXT NOT NULL,
				"TraderId" TEXT NOT NULL,
				"Pnl" DOUBLE NOT NULL,
				"Commission" DOUBLE NOT NULL,
				"Slippage" DOUBLE NOT NULL,
				"Capital" DOUBLE NOT NULL
			)`, s.logTable),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create schema", err)
		}
	}

	return nil
}

// InsertTraders stores trader/strategy associations in one transaction.
func (s *SQLRowSource) InsertTraders(ctx context.Context, traders []Trader) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(traders); start += insertBatchSize {
			end := min(start+insertBatchSize, len(traders))

			builder := s.sq.Insert(s.traderTable).Columns(quoteIdent("Id"), quoteIdent("StrategyId"))
			for _, t := range traders[start:end] {
				builder = builder.Values(t.ID, t.StrategyID)
			}

			if err := execInsert(ctx, tx, builder); err != nil {
				return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert traders", err)
			}
		}

		return nil
	})
}

// InsertPnlRows stores PnL rows in one transaction. Row dates are canonicalized first.
func (s *SQLRowSource) InsertPnlRows(ctx context.Context, rows []types.PnlRow) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(rows); start += insertBatchSize {
			end := min(start+insertBatchSize, len(rows))

			builder := s.sq.Insert(s.logTable).Columns(
				quoteIdent("Date"),
				quoteIdent("TraderId"),
				quoteIdent("Pnl"),
				quoteIdent("Commission"),
				quoteIdent("Slippage"),
				quoteIdent("Capital"),
			)

			for _, r := range rows[start:end] {
				date, err := types.NormalizeDateKey(r.Date)
				if err != nil {
					return err
				}

				builder = builder.Values(date, r.TraderID, r.Pnl, r.Commission, r.Slippage, r.Capital)
			}

			if err := execInsert(ctx, tx, builder); err != nil {
				return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert pnl rows", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Inserted pnl rows", zap.Int("rows", len(rows)))

	return nil
}

func (s *SQLRowSource) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit transaction", err)
	}

	return nil
}

func execInsert(ctx context.Context, tx *sql.Tx, builder squirrel.InsertBuilder) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)

	return err
}
