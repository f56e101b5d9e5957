package common

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/workflow-stats/models"
)

// ConfigFlags are the global flags backing models.Config. Each can also be set
// through its WFSTATS_ environment variable.
func ConfigFlags() []cli.Flag {
	def := models.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "YAML config file; explicitly set flags override its values",
			EnvVars: []string{"WFSTATS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Path to the scraper's SQLite database",
			Value:   def.DBPath,
			EnvVars: []string{"WFSTATS_DB"},
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "HTTP listen address",
			Value:   def.Listen,
			EnvVars: []string{"WFSTATS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "session-window",
			Usage:   "Length of the live session window",
			Value:   def.SessionWindow,
			EnvVars: []string{"WFSTATS_SESSION_WINDOW"},
		},
		&cli.DurationFlag{
			Name:    "diagnostic-window",
			Usage:   "Length of the diagnostic window",
			Value:   def.DiagnosticWindow,
			EnvVars: []string{"WFSTATS_DIAGNOSTIC_WINDOW"},
		},
		&cli.DurationFlag{
			Name:    "store-timeout",
			Value:   def.StoreTimeout,
			EnvVars: []string{"WFSTATS_STORE_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "metrics-timeout",
			Value:   def.MetricsTimeout,
			EnvVars: []string{"WFSTATS_METRICS_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "signal-timeout",
			Value:   def.SignalTimeout,
			EnvVars: []string{"WFSTATS_SIGNAL_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "refresh-interval",
			Usage:   "How often the dashboard refreshes without a signal",
			Value:   def.RefreshInterval,
			EnvVars: []string{"WFSTATS_REFRESH_INTERVAL"},
		},
		&cli.StringFlag{
			Name:    "worker-pattern",
			Usage:   "Substring matched against process command lines to find scraper workers",
			Value:   def.WorkerPattern,
			EnvVars: []string{"WFSTATS_WORKER_PATTERN"},
		},
		&cli.StringFlag{
			Name:    "refresh-url",
			Usage:   "Trigger endpoint of a running dashboard",
			Value:   def.RefreshURL,
			EnvVars: []string{"WFSTATS_REFRESH_URL"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level, including one line per HTTP request",
		},
	}
}

// ResolveConfig builds the effective config: defaults, then the --config file,
// then any flag set on the command line or through the environment.
func ResolveConfig(c *cli.Context) (models.Config, error) {
	cfg := models.DefaultConfig()

	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("session-window") {
		cfg.SessionWindow = c.Duration("session-window")
	}
	if c.IsSet("diagnostic-window") {
		cfg.DiagnosticWindow = c.Duration("diagnostic-window")
	}
	if c.IsSet("store-timeout") {
		cfg.StoreTimeout = c.Duration("store-timeout")
	}
	if c.IsSet("metrics-timeout") {
		cfg.MetricsTimeout = c.Duration("metrics-timeout")
	}
	if c.IsSet("signal-timeout") {
		cfg.SignalTimeout = c.Duration("signal-timeout")
	}
	if c.IsSet("refresh-interval") {
		cfg.RefreshInterval = c.Duration("refresh-interval")
	}
	if c.IsSet("worker-pattern") {
		cfg.WorkerPattern = c.String("worker-pattern")
	}
	if c.IsSet("refresh-url") {
		cfg.RefreshURL = c.String("refresh-url")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
