package rowsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rxtech-lab/pnl-downloader/internal/logger"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"go.uber.org/zap"
)

// Driver is a database/sql driver name supported by the SQL row source.
type Driver string

const (
	DriverDuckDB Driver = "duckdb"
	DriverSQLite Driver = "sqlite3"
)

const (
	DefaultTraderTable = "TraderDbo"
	DefaultLogTable    = "TraderLogDbo"
)

// Config holds the connection settings of a SQL row source.
type Config struct {
	Driver      Driver `validate:"required,oneof=duckdb sqlite3"`
	DSN         string `validate:"required"`
	TraderTable string
	LogTable    string
}

// SQLRowSource reads traders and PnL rows from a relational database.
// It is safe for concurrent use.
type SQLRowSource struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	traderTable string
	logTable    string
}

// Open connects to the database described by config.
func Open(config Config, log *logger.Logger) (*SQLRowSource, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid row source configuration", err)
	}

	db, err := sql.Open(string(config.Driver), config.DSN)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s database", config.Driver)
	}

	// every sqlite connection to :memory: is its own database
	if config.Driver == DriverSQLite && strings.Contains(config.DSN, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to connect to %s database", config.Driver)
	}

	return NewSQLRowSource(db, config.TraderTable, config.LogTable, log), nil
}

// NewSQLRowSource wraps an existing connection pool. Empty table names fall back to
// DefaultTraderTable and DefaultLogTable.
func NewSQLRowSource(db *sql.DB, traderTable, logTable string, log *logger.Logger) *SQLRowSource {
	if traderTable == "" {
		traderTable = DefaultTraderTable
	}

	if logTable == "" {
		logTable = DefaultLogTable
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SQLRowSource{
		db:          db,
		logger:      log,
		sq:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		traderTable: quoteIdent(traderTable),
		logTable:    quoteIdent(logTable),
	}
}

// TradersForStrategy implements RowSource.
func (s *SQLRowSource) TradersForStrategy(ctx context.Context, strategyID string) ([]string, error) {
	query, args, err := s.sq.
		Select(quoteIdent("Id")).
		From(s.traderTable).
		Where(squirrel.Eq{quoteIdent("StrategyId"): strategyID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trader query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query traders of strategy %s", strategyID)
	}
	defer rows.Close()

	traderIDs := make([]string, 0)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trader id", err)
		}

		traderIDs = append(traderIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trader rows", err)
	}

	s.logger.Debug("Resolved strategy traders",
		zap.String("strategy_id", strategyID),
		zap.Int("traders", len(traderIDs)))

	return traderIDs, nil
}

// PnlForTraders implements RowSource. Rows come back in the database's order.
func (s *SQLRowSource) PnlForTraders(ctx context.Context, traderIDs []string, startDate string) ([]types.PnlRow, error) {
	if len(traderIDs) == 0 {
		return []types.PnlRow{}, nil
	}

	start, err := types.NormalizeDateKey(startDate)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid start date", err)
	}

	query, args, err := s.sq.
		Select(
			quoteIdent("Date"),
			quoteIdent("TraderId"),
			quoteIdent("Pnl"),
			quoteIdent("Commission"),
			quoteIdent("Slippage"),
			quoteIdent("Capital"),
		).
		From(s.logTable).
		Where(squirrel.And{
			squirrel.GtOrEq{quoteIdent("Date"): start},
			squirrel.Eq{quoteIdent("TraderId"): traderIDs},
		}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build pnl query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query pnl of %d traders", len(traderIDs))
	}
	defer rows.Close()

	result := make([]types.PnlRow, 0)

	for rows.Next() {
		var (
			rawDate                             any
			traderID                            string
			pnl, commission, slippage, capital float64
		)

		if err := rows.Scan(&rawDate, &traderID, &pnl, &commission, &slippage, &capital); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan pnl row", err)
		}

		date, err := dateColumn(rawDate)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid date in pnl row of trader %s", traderID)
		}

		result = append(result, types.PnlRow{
			Date:       date,
			TraderID:   traderID,
			Pnl:        pnl,
			Commission: commission,
			Slippage:   slippage,
			Capital:    capital,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating pnl rows", err)
	}

	s.logger.Debug("Fetched trader pnl rows",
		zap.Int("traders", len(traderIDs)),
		zap.String("start_date", start),
		zap.Int("rows", len(result)))

	return result, nil
}

// Close implements RowSource.
func (s *SQLRowSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

// dateColumn canonicalizes a scanned date column. Drivers hand back text, integers or
// time values depending on the column type.
func dateColumn(raw any) (string, error) {
	switch v := raw.(type) {
	case []byte:
		return types.NormalizeDateKey(string(v))
	case nil:
		return "", fmt.Errorf("date is NULL")
	default:
		return types.NormalizeDateKey(v)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
