package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/rxtech-lab/pnl-downloader/internal/rowsource"
	"github.com/rxtech-lab/pnl-downloader/internal/seed"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func initDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-db",
		Usage: "Create the trader and trader log tables if they are missing",
		Flags: databaseFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, source, err := openSource(cmd)
			if err != nil {
				return err
			}

			defer log.Sync()
			defer source.Close()

			if err := source.EnsureSchema(ctx); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.Root().Writer, "schema ready in %s\n", cfg.Database.DSN)

			return err
		},
	}
}

func importCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "strategy",
			Aliases:  []string{"s"},
			Usage:    "Strategy the trader belongs to",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "trader",
			Aliases:  []string{"t"},
			Usage:    "Trader id the rows are stored under",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Aggregated PnL series CSV `FILE`",
			Required: true,
		},
		&cli.FloatFlag{
			Name:  "capital",
			Usage: "Capital stored with every imported row",
		},
	}

	return &cli.Command{
		Name:   "import",
		Usage:  "Store an exported PnL series CSV as trader log rows",
		Flags:  append(databaseFlags(), flags...),
		Action: importAction,
	}
}

func importAction(ctx context.Context, cmd *cli.Command) error {
	strategyID := cmd.String("strategy")
	traderID := cmd.String("trader")

	series, err := types.ImportCsv(cmd.String("file"))
	if err != nil {
		return err
	}

	_, log, source, err := openSource(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()
	defer source.Close()

	if err := ensureTraders(ctx, source, strategyID, traderID); err != nil {
		return err
	}

	capital := float64(cmd.Float("capital"))
	pairs := series.ToSortedPairs()
	rows := make([]types.PnlRow, 0, len(pairs))

	for _, pair := range pairs {
		rows = append(rows, types.PnlRow{Date: pair.Date, TraderID: traderID, Pnl: pair.Value, Capital: capital})
	}

	if err := source.InsertPnlRows(ctx, rows); err != nil {
		return err
	}

	log.Info("Imported pnl series",
		zap.String("strategy_id", strategyID),
		zap.String("trader_id", traderID),
		zap.Int("rows", len(rows)))

	_, err = fmt.Fprintf(cmd.Root().Writer, "imported %d rows for %s/%s\n", len(rows), strategyID, traderID)

	return err
}

func seedCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "strategy",
			Aliases:  []string{"s"},
			Usage:    "Strategy to create, repeat for several strategies",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "traders",
			Usage: "Number of traders per strategy",
			Value: 3,
		},
		&cli.IntFlag{
			Name:  "days",
			Usage: "Number of trading days per trader",
			Value: 250,
		},
		&cli.IntFlag{
			Name:  "seed",
			Usage: "Random seed of the generated PnL",
			Value: 42,
		},
	}

	return &cli.Command{
		Name:   "seed",
		Usage:  "Fill the database with generated strategies, traders and daily PnL",
		Flags:  append(databaseFlags(), flags...),
		Action: seedAction,
	}
}

func seedAction(ctx context.Context, cmd *cli.Command) error {
	_, log, source, err := openSource(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()
	defer source.Close()

	generator := seed.NewDataGenerator(int64(cmd.Int("seed")))
	genConfig := seed.DefaultConfig()
	genConfig.Days = int(cmd.Int("days"))

	traderCount := int(cmd.Int("traders"))
	total := 0

	for _, strategyID := range cmd.StringSlice("strategy") {
		traderIDs := make([]string, 0, traderCount)
		for i := 1; i <= traderCount; i++ {
			traderIDs = append(traderIDs, fmt.Sprintf("%s-T%d", strategyID, i))
		}

		if err := ensureTraders(ctx, source, strategyID, traderIDs...); err != nil {
			return err
		}

		rows := generator.GenerateMultiTrader(traderIDs, genConfig)
		if err := source.InsertPnlRows(ctx, rows); err != nil {
			return err
		}

		total += len(rows)
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "seeded %d rows\n", total)

	return err
}

// ensureTraders creates the schema and registers the traders that the strategy does not
// already own.
func ensureTraders(ctx context.Context, source *rowsource.SQLRowSource, strategyID string, traderIDs ...string) error {
	if err := source.EnsureSchema(ctx); err != nil {
		return err
	}

	existing, err := source.TradersForStrategy(ctx, strategyID)
	if err != nil {
		return err
	}

	missing := make([]rowsource.Trader, 0, len(traderIDs))

	for _, traderID := range traderIDs {
		if !slices.Contains(existing, traderID) {
			missing = append(missing, rowsource.Trader{ID: traderID, StrategyID: strategyID})
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return source.InsertTraders(ctx, missing)
}
