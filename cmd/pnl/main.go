package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/pnl-downloader/internal/config"
	"github.com/rxtech-lab/pnl-downloader/internal/logger"
	"github.com/rxtech-lab/pnl-downloader/internal/rowsource"
	"github.com/rxtech-lab/pnl-downloader/internal/version"
	"github.com/urfave/cli/v3"
)

// Flags shared by every command that talks to the database.
func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config `FILE`",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env `FILE` loaded before the config",
			Value: config.DefaultDotEnvFile,
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: fmt.Sprintf("Database driver (%s or %s)", rowsource.DriverDuckDB, rowsource.DriverSQLite),
		},
		&cli.StringFlag{
			Name:  "dsn",
			Usage: "Database data source name",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Minimum log level (debug, info, warn, error)",
		},
	}
}

// loadConfig resolves the config from the config file, the environment (completed by .env)
// and the command line, in increasing order of precedence.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	if err := config.LoadDotEnv(cmd.String("env-file")); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if cmd.IsSet("driver") {
		cfg.Database.Driver = cmd.String("driver")
	}

	if cmd.IsSet("dsn") {
		cfg.Database.DSN = cmd.String("dsn")
	}

	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// openSource loads the config and opens the row source it describes.
func openSource(cmd *cli.Command) (config.Config, *logger.Logger, *rowsource.SQLRowSource, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	source, err := rowsource.Open(cfg.RowSourceConfig(), log)
	if err != nil {
		_ = log.Sync()

		return config.Config{}, nil, nil, err
	}

	return cfg, log, source, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "pnl",
		Usage: "Download per-trader PnL series from the portfolio database",
		Commands: []*cli.Command{
			downloadCommand(),
			initDBCommand(),
			importCommand(),
			seedCommand(),
			showCommand(),
			schemaCommand(),
			{
				Name:  "version",
				Usage: "Print the binary version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

					return err
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
