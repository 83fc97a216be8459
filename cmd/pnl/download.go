package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pnl-downloader/internal/download"
	"github.com/rxtech-lab/pnl-downloader/internal/tracing"
	"github.com/rxtech-lab/pnl-downloader/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "strategy",
			Aliases: []string{"s"},
			Usage:   "Strategy id to download, repeat for several strategies",
		},
		&cli.StringFlag{
			Name:  "start",
			Usage: "Earliest date to download in `YYYYMMDD` format",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum number of strategies downloaded at once",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory receiving one CSV per trader",
		},
		&cli.BoolFlag{
			Name:  "flat",
			Usage: "Write every trader directly below the output directory",
		},
		&cli.StringFlag{
			Name:  "summary",
			Usage: "Write a YAML run summary to `FILE`",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Print OpenTelemetry spans to stderr",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar on stderr",
		},
	}

	return &cli.Command{
		Name:   "download",
		Usage:  "Download the PnL of every trader of the given strategies",
		Flags:  append(databaseFlags(), flags...),
		Action: downloadAction,
	}
}

// downloadParams applies command line flags on top of the config file's parameters.
func downloadParams(cmd *cli.Command, params download.Params) download.Params {
	if cmd.IsSet("strategy") {
		params.StrategyIDs = cmd.StringSlice("strategy")
	}

	if cmd.IsSet("start") {
		params.StartDate = cmd.String("start")
	}

	if cmd.IsSet("concurrency") {
		params.Concurrency = int(cmd.Int("concurrency"))
	}

	if cmd.IsSet("output") {
		params.OutputRoot = optional.Some(cmd.String("output"))
	}

	if cmd.Bool("flat") {
		params.Flatten = true
	}

	if cmd.IsSet("summary") {
		params.SummaryPath = optional.Some(cmd.String("summary"))
	}

	return params
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, source, err := openSource(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()
	defer source.Close()

	if cfg.Tracing.Enabled || cmd.Bool("trace") {
		if err := tracing.Init(os.Stderr, version.GetVersion()); err != nil {
			return err
		}

		defer func() {
			if err := tracing.Shutdown(ctx); err != nil {
				log.Warn("Failed to shut down tracing", zap.Error(err))
			}
		}()
	}

	params := downloadParams(cmd, cfg.DownloadParams())

	var opts []download.Option

	if cmd.Bool("progress") {
		bar := progressbar.NewOptions(len(params.StrategyIDs),
			progressbar.OptionSetDescription("Downloading strategies"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount())
		defer bar.Finish()

		opts = append(opts, download.WithProgress(func(done, total int, strategyID string) {
			_ = bar.Set(done)
		}))
	}

	result, err := download.NewDownloader(source, log, opts...).Download(ctx, params)
	if result != nil {
		printResult(cmd.Root().Writer, params, result)
	}

	return err
}

func printResult(w io.Writer, params download.Params, result *download.Result) {
	for _, strategy := range result.Summary.Strategies {
		if strategy.Error != "" {
			fmt.Fprintf(w, "%s: failed: %s\n", strategy.StrategyID, strategy.Error)

			continue
		}

		fmt.Fprintf(w, "%s: %d traders, %d rows\n", strategy.StrategyID, strategy.Traders, strategy.Rows)
	}

	if params.OutputRoot.IsSome() {
		fmt.Fprintf(w, "exported to %s\n", params.OutputRoot.Unwrap())
	}

	fmt.Fprintf(w, "run %s: %d strategies, %d failed\n",
		result.RunID, len(result.Summary.Strategies), len(result.Failed))
}
