package serve

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/workflow-stats/internal/common"
	"github.com/dtnitsch/workflow-stats/pkg/api"
	"github.com/dtnitsch/workflow-stats/pkg/refresh"
)

// ServeAction runs the polling API and the refresh loop until interrupted.
func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.ResolveConfig(c)
	if err != nil {
		return err
	}

	agg, database, err := common.OpenEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	loop := refresh.NewLoop(agg, cfg.RefreshInterval, refresh.NewGauges(reg), logger)
	server := api.NewServer(agg, loop, api.Options{
		SignalTimeout: cfg.SignalTimeout,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil {
			logger.Error("refresh loop failed", "error", err)
		}
	}()

	logger.Info("dashboard engine starting",
		"db", database.Path(),
		"listen", cfg.Listen,
		"session_window", cfg.SessionWindow,
		"worker_pattern", cfg.WorkerPattern)

	err = server.ListenAndServe(ctx, cfg.Listen)
	stop()
	<-loopDone
	return err
}
