package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// Gauges mirrors the latest refreshed snapshot for Prometheus.
type Gauges struct {
	Workflows     *prometheus.GaugeVec
	Session       *prometheus.GaugeVec
	SuccessRate   prometheus.Gauge
	Scraping      prometheus.Gauge
	Workers       prometheus.Gauge
	Refreshes     *prometheus.CounterVec
	RefreshErrors prometheus.Counter
	LastRefresh   prometheus.Gauge
}

// NewGauges registers the dashboard metrics on reg.
func NewGauges(reg prometheus.Registerer) *Gauges {
	f := promauto.With(reg)
	return &Gauges{
		Workflows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workflow_stats_workflows",
			Help: "All-time workflow count per status category",
		}, []string{"status"}),
		Session: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workflow_stats_session_workflows",
			Help: "Workflow counts inside the session window",
		}, []string{"kind"}),
		SuccessRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "workflow_stats_success_rate_percent",
			Help: "Share of fully successful workflows",
		}),
		Scraping: f.NewGauge(prometheus.GaugeOpts{
			Name: "workflow_stats_scraping_active",
			Help: "1 while scraper worker processes are running",
		}),
		Workers: f.NewGauge(prometheus.GaugeOpts{
			Name: "workflow_stats_scraper_workers",
			Help: "Number of running scraper worker processes",
		}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_stats_refreshes_total",
			Help: "Dashboard refreshes by trigger",
		}, []string{"reason"}),
		RefreshErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "workflow_stats_refresh_errors_total",
			Help: "Refreshes that failed because the record store was unavailable",
		}),
		LastRefresh: f.NewGauge(prometheus.GaugeOpts{
			Name: "workflow_stats_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
	}
}

// Observe copies a snapshot into the gauges.
func (g *Gauges) Observe(snap stats.Snapshot) {
	for _, s := range models.AllStatuses {
		g.Workflows.WithLabelValues(s.String()).Set(float64(snap.Counts.Of(s)))
	}

	session := snap.SessionCounts()
	g.Session.WithLabelValues("success").Set(float64(session.Success))
	g.Session.WithLabelValues("failed").Set(float64(session.Failed))
	g.Session.WithLabelValues("empty").Set(float64(session.Empty))
	g.Session.WithLabelValues("total").Set(float64(session.Total))

	g.SuccessRate.Set(snap.SuccessRate)
	if snap.IsScraping {
		g.Scraping.Set(1)
	} else {
		g.Scraping.Set(0)
	}
	if snap.ActiveProcesses.Known {
		g.Workers.Set(float64(snap.ActiveProcesses.Value))
	}
	g.LastRefresh.Set(float64(snap.GeneratedAt.Unix()))
}
