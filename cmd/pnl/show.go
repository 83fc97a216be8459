package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rxtech-lab/pnl-downloader/internal/config"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print an exported PnL series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Aggregated PnL series CSV `FILE`",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Print at most this many entries, 0 prints all",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			series, err := types.ImportCsv(cmd.String("file"))
			if err != nil {
				return err
			}

			pairs := series.ToSortedPairs()
			if limit := int(cmd.Int("limit")); limit > 0 && limit < len(pairs) {
				pairs = pairs[:limit]
			}

			w := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tPNL")

			total := 0.0
			for _, pair := range pairs {
				fmt.Fprintf(w, "%s\t%s\n", pair.Date, types.FormatPnlValue(pair.Value))
				total += pair.Value
			}

			fmt.Fprintf(w, "TOTAL\t%s\n", types.FormatPnlValue(total))

			return w.Flush()
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the config file, or write it with a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the schema and a sample config into `DIR`",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if dir := cmd.String("output"); dir != "" {
				schemaPath, samplePath, err := config.WriteSchemaFiles(dir)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.Root().Writer, "wrote %s and %s\n", schemaPath, samplePath)

				return err
			}

			schemaJSON, err := config.GenerateSchemaJSON()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schemaJSON)

			return err
		},
	}
}
