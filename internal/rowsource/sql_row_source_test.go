package rowsource

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/rxtech-lab/pnl-downloader/internal/logger"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SQLRowSourceTestSuite struct {
	suite.Suite
	driver Driver
	source *SQLRowSource
}

func TestSQLRowSourceSQLiteSuite(t *testing.T) {
	suite.Run(t, &SQLRowSourceTestSuite{driver: DriverSQLite})
}

func TestSQLRowSourceDuckDBSuite(t *testing.T) {
	suite.Run(t, &SQLRowSourceTestSuite{driver: DriverDuckDB})
}

func (suite *SQLRowSourceTestSuite) SetupTest() {
	dsn := filepath.Join(suite.T().TempDir(), "pm.db")

	source, err := Open(Config{Driver: suite.driver, DSN: dsn}, logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source

	ctx := context.Background()
	suite.Require().NoError(source.EnsureSchema(ctx))
	suite.Require().NoError(source.InsertTraders(ctx, []Trader{
		{ID: "T1", StrategyID: "S1"},
		{ID: "T2", StrategyID: "S1"},
		{ID: "T3", StrategyID: "S1"},
		{ID: "T4", StrategyID: "S2"},
	}))
	suite.Require().NoError(source.InsertPnlRows(ctx, []types.PnlRow{
		{Date: "20161230", TraderID: "T1", Pnl: 100, Commission: 1, Slippage: 0.5, Capital: 1000},
		{Date: "20170101", TraderID: "T1", Pnl: 1.5, Commission: 0.1, Slippage: 0.01, Capital: 1000},
		{Date: "20170102", TraderID: "T1", Pnl: -2.25, Commission: 0.2, Slippage: 0.02, Capital: 1000},
		{Date: "20170103", TraderID: "T2", Pnl: 3, Commission: 0.3, Slippage: 0.03, Capital: 2000},
		{Date: "20161201", TraderID: "T3", Pnl: 7, Commission: 0, Slippage: 0, Capital: 500},
		{Date: "20170105", TraderID: "T4", Pnl: 4, Commission: 0, Slippage: 0, Capital: 500},
	}))
}

func (suite *SQLRowSourceTestSuite) TearDownTest() {
	if suite.source != nil {
		suite.source.Close()
	}
}

func (suite *SQLRowSourceTestSuite) TestTradersForStrategy() {
	ids, err := suite.source.TradersForStrategy(context.Background(), "S1")
	suite.Require().NoError(err)

	sort.Strings(ids)
	suite.Equal([]string{"T1", "T2", "T3"}, ids)
}

func (suite *SQLRowSourceTestSuite) TestTradersForUnknownStrategy() {
	ids, err := suite.source.TradersForStrategy(context.Background(), "missing")
	suite.Require().NoError(err)
	suite.NotNil(ids)
	suite.Empty(ids)
}

func (suite *SQLRowSourceTestSuite) TestPnlForTradersFiltersByStartDate() {
	rows, err := suite.source.PnlForTraders(context.Background(), []string{"T1", "T2", "T3"}, "20170101")
	suite.Require().NoError(err)

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	suite.Equal([]types.PnlRow{
		{Date: "20170101", TraderID: "T1", Pnl: 1.5, Commission: 0.1, Slippage: 0.01, Capital: 1000},
		{Date: "20170102", TraderID: "T1", Pnl: -2.25, Commission: 0.2, Slippage: 0.02, Capital: 1000},
		{Date: "20170103", TraderID: "T2", Pnl: 3, Commission: 0.3, Slippage: 0.03, Capital: 2000},
	}, rows)
}

func (suite *SQLRowSourceTestSuite) TestPnlForTradersOmitsTradersWithoutRows() {
	rows, err := suite.source.PnlForTraders(context.Background(), []string{"T3", "unknown"}, "20170101")
	suite.Require().NoError(err)
	suite.Empty(rows)
}

func (suite *SQLRowSourceTestSuite) TestPnlForTradersEmptyTraderList() {
	rows, err := suite.source.PnlForTraders(context.Background(), nil, "20170101")
	suite.Require().NoError(err)
	suite.NotNil(rows)
	suite.Empty(rows)
}

func (suite *SQLRowSourceTestSuite) TestPnlForTradersInvalidStartDate() {
	_, err := suite.source.PnlForTraders(context.Background(), []string{"T1"}, "2017-01-01")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *SQLRowSourceTestSuite) TestQueryAfterClose() {
	suite.Require().NoError(suite.source.Close())

	_, err := suite.source.TradersForStrategy(context.Background(), "S1")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))

	_, err = suite.source.PnlForTraders(context.Background(), []string{"T1"}, "20170101")
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))

	suite.source = nil
}

func (suite *SQLRowSourceTestSuite) TestInsertPnlRowsRejectsInvalidDate() {
	err := suite.source.InsertPnlRows(context.Background(), []types.PnlRow{
		{Date: "20170201", TraderID: "T1", Pnl: 1},
		{Date: "not a date", TraderID: "T1", Pnl: 2},
	})
	suite.True(errors.IsKeyError(err))

	// the whole batch is rolled back
	rows, err := suite.source.PnlForTraders(context.Background(), []string{"T1"}, "20170201")
	suite.Require().NoError(err)
	suite.Empty(rows)
}

func (suite *SQLRowSourceTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.source.TradersForStrategy(ctx, "S1")
	suite.Error(err)
}

func TestOpenInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing driver", config: Config{DSN: ":memory:"}},
		{name: "unknown driver", config: Config{Driver: "sqlserver", DSN: "x"}},
		{name: "missing dsn", config: Config{Driver: DriverSQLite}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(tc.config, nil)
			if !errors.HasCode(err, errors.ErrCodeInvalidConfiguration) {
				t.Fatalf("expected invalid configuration error, got %v", err)
			}
		})
	}
}

func TestIntegerDateColumn(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "int.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE traders ("Id" TEXT, "StrategyId" TEXT)`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(`CREATE TABLE logs ("Date" INTEGER, "TraderId" INTEGER, "Pnl" INTEGER, "Commission" REAL, "Slippage" REAL, "Capital" REAL)`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(`INSERT INTO logs VALUES (20170102, 7, 5, 0.5, 0.25, 100)`)
	if err != nil {
		t.Fatal(err)
	}

	source := NewSQLRowSource(db, "traders", "logs", nil)

	rows, err := source.PnlForTraders(context.Background(), []string{"7"}, "20170101")
	if err != nil {
		t.Fatal(err)
	}

	expected := []types.PnlRow{{Date: "20170102", TraderID: "7", Pnl: 5, Commission: 0.5, Slippage: 0.25, Capital: 100}}
	if len(rows) != 1 || rows[0] != expected[0] {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestDateColumn(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected string
		wantErr  bool
	}{
		{name: "text", raw: "20200101", expected: "20200101"},
		{name: "bytes", raw: []byte("20200102"), expected: "20200102"},
		{name: "integer", raw: int64(20200103), expected: "20200103"},
		{name: "int32", raw: int32(20200104), expected: "20200104"},
		{name: "timestamp", raw: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), expected: "20200105"},
		{name: "null", raw: nil, wantErr: true},
		{name: "garbage", raw: "yesterday", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dateColumn(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tc.raw)
				}

				return
			}

			if err != nil || got != tc.expected {
				t.Fatalf("dateColumn(%v) = %q, %v; want %q", tc.raw, got, err, tc.expected)
			}
		})
	}
}
