package common

import (
	"fmt"
	"log/slog"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/db"
	"github.com/dtnitsch/workflow-stats/pkg/procreg"
	"github.com/dtnitsch/workflow-stats/pkg/stats"
	"github.com/dtnitsch/workflow-stats/pkg/sysmetrics"
	"github.com/dtnitsch/workflow-stats/pkg/window"
)

// OpenEngine opens the record store and wires an aggregator over it with the
// host metrics collector and process registry. The caller closes the database.
func OpenEngine(cfg models.Config, logger *slog.Logger) (*stats.Aggregator, *db.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	agg := stats.NewAggregator(
		database,
		sysmetrics.NewCollector(database, logger),
		procreg.NewRegistry(cfg.WorkerPattern, logger),
		stats.Options{
			Windows:        window.NewSet(cfg.SessionWindow, cfg.DiagnosticWindow),
			StoreTimeout:   cfg.StoreTimeout,
			MetricsTimeout: cfg.MetricsTimeout,
		},
		logger,
	)
	return agg, database, nil
}
