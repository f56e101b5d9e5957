package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/workflow-stats/internal/common"
	"github.com/dtnitsch/workflow-stats/internal/ingest"
	"github.com/dtnitsch/workflow-stats/internal/report"
	"github.com/dtnitsch/workflow-stats/internal/serve"
	"github.com/dtnitsch/workflow-stats/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "wfstats",
		Usage: "Live statistics for the L1-L3 scraping pipeline",
		Flags: common.ConfigFlags(),
		Commands: []*cli.Command{
			{
				Name:  "quickstart",
				Usage: "Print a YAML quick reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the polling API and run the refresh loop",
				Action: serve.ServeAction,
			},
			{
				Name:  "stats",
				Usage: "Print one statistics snapshot",
				Flags: []cli.Flag{
					formatFlag("json"),
					&cli.StringFlag{
						Name:  "fields",
						Usage: "Comma-separated fields to include (e.g. total_workflows,success_rate)",
					},
				},
				Action: report.StatsAction,
			},
			{
				Name:   "recent",
				Usage:  "Print the ten most recent workflows",
				Flags:  []cli.Flag{formatFlag("table")},
				Action: report.RecentAction,
			},
			{
				Name:      "session",
				Usage:     "Print counts for a window",
				ArgsUsage: "[session|diagnostic|<duration>]",
				Flags:     []cli.Flag{formatFlag("table")},
				Action:    report.SessionAction,
			},
			{
				Name:  "ingest",
				Usage: "Load JSON-lines extraction records into the database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Input file; stdin when empty or -",
					},
					&cli.BoolFlag{
						Name:  "notify",
						Usage: "Signal the running dashboard (--refresh-url) after writing",
					},
					formatFlag("json"),
				},
				Action: ingest.IngestAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag(def string) cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: json, yaml or table where supported",
		Value: def,
	}
}
