// Package stats composes classification, session windows, the activity feed,
// system metrics and scraper activity into dashboard snapshots.
//
// Nothing is cached between calls: each snapshot is recomputed from the
// record store at request time.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/activity"
	"github.com/dtnitsch/workflow-stats/pkg/classifier"
	"github.com/dtnitsch/workflow-stats/pkg/procreg"
	"github.com/dtnitsch/workflow-stats/pkg/sysmetrics"
	"github.com/dtnitsch/workflow-stats/pkg/window"
)

// RecordStore is the read side of the scraper's store.
type RecordStore interface {
	AllRecords(ctx context.Context) ([]models.ExtractionRecord, error)
	RecordsSince(ctx context.Context, cutoff, now time.Time) ([]models.ExtractionRecord, error)
	RecentRecords(ctx context.Context, k int) ([]models.ExtractionRecord, error)
}

// MetricsSource supplies system metrics. A non-nil error marks some fields unknown.
type MetricsSource interface {
	Collect(ctx context.Context) (sysmetrics.Metrics, error)
}

// ProcessRegistry reports scraper worker activity.
type ProcessRegistry interface {
	Scan(ctx context.Context) (procreg.Activity, error)
}

// Options configures an Aggregator.
type Options struct {
	Windows        window.Set
	StoreTimeout   time.Duration
	MetricsTimeout time.Duration
}

// Aggregator builds snapshots. It holds no mutable state and is safe for
// concurrent use.
type Aggregator struct {
	store    RecordStore
	metrics  MetricsSource
	registry ProcessRegistry
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// NewAggregator creates an Aggregator. metrics and registry may be nil, in
// which case their fields are always reported unknown.
func NewAggregator(store RecordStore, metrics MetricsSource, registry ProcessRegistry, opts Options, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	windows := window.NewSet(5*time.Minute, 10*time.Minute)
	for name, d := range opts.Windows {
		if d > 0 {
			windows[name] = d
		}
	}
	opts.Windows = windows
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 10 * time.Second
	}
	if opts.MetricsTimeout <= 0 {
		opts.MetricsTimeout = 5 * time.Second
	}
	return &Aggregator{
		store:    store,
		metrics:  metrics,
		registry: registry,
		opts:     opts,
		log:      log.With("component", "stats"),
		now:      time.Now,
	}
}

type collaborators struct {
	metrics    sysmetrics.Metrics
	metricsErr error
	activity   procreg.Activity
	procErr    error
}

// Snapshot builds a snapshot. Only a store failure is returned as an error
// (wrapping ErrStoreUnavailable); other sources degrade to unknown fields.
func (a *Aggregator) Snapshot(ctx context.Context) (Snapshot, error) {
	now := a.now()

	collabCtx, cancel := context.WithTimeout(ctx, a.opts.MetricsTimeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		collab collaborators
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		collab.metrics, collab.metricsErr = a.collectMetrics(collabCtx)
	}()
	go func() {
		defer wg.Done()
		collab.activity, collab.procErr = a.scanProcesses(collabCtx)
	}()

	storeCtx, storeCancel := context.WithTimeout(ctx, a.opts.StoreTimeout)
	records, err := a.store.AllRecords(storeCtx)
	storeCancel()
	if err != nil {
		cancel()
		wg.Wait()
		return Snapshot{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	wg.Wait()

	a.logMalformed(records)

	sessionWindow, _ := a.opts.Windows.Resolve(window.Session)
	counts := classifier.Count(records)
	session := window.Count(records, sessionWindow, now)

	snap := Snapshot{
		Counts:                counts,
		CurrentSessionSuccess: session.Success,
		CurrentSessionFailed:  session.Failed,
		CurrentSessionEmpty:   session.Empty,
		CurrentSessionTotal:   session.Total,
		SuccessRate:           counts.SuccessRate(),
		RecentActivity:        activity.Feed(records),
		GeneratedAt:           now.UTC(),
	}

	if collab.metricsErr != nil {
		a.log.Warn("system metrics degraded", "error", fmt.Errorf("%w: %w", ErrMetricsUnavailable, collab.metricsErr))
	}
	snap.DBStatus = dbStatus(collab.metrics.DBReachable)
	snap.CPUUsage = Percent(collab.metrics.CPUPercent)
	snap.MemoryUsage = Percent(collab.metrics.MemoryPercent)
	snap.Uptime = formatUptime(collab.metrics)

	if collab.procErr != nil {
		a.log.Warn("process registry unavailable", "error", collab.procErr)
	} else {
		snap.IsScraping = collab.activity.Active
		snap.ActiveProcesses = OptionalInt{Value: collab.activity.Workers, Known: true}
	}

	if len(snap.RecentActivity) > 0 {
		newest := snap.RecentActivity[0]
		snap.CurrentWorkflow = &CurrentWorkflow{
			WorkflowID:  newest.WorkflowID,
			Status:      newest.Status,
			ExtractedAt: activity.FormatTime(newest.ExtractedAt),
		}
	}

	if snap.IsScraping {
		snap.ScrapingProgress = &Progress{
			Processed:  session.Total,
			Successful: session.Success,
			Failed:     session.Failed,
			PerMinute:  classifier.Round1(float64(session.Total) / sessionWindow.Minutes()),
		}
	}

	return snap, nil
}

// Recent returns the activity feed straight from the store's recency query.
func (a *Aggregator) Recent(ctx context.Context) ([]activity.Entry, error) {
	storeCtx, cancel := context.WithTimeout(ctx, a.opts.StoreTimeout)
	defer cancel()

	records, err := a.store.RecentRecords(storeCtx, activity.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return activity.Feed(records), nil
}

// Window reports counts for a named window or an ad-hoc duration such as "90s".
func (a *Aggregator) Window(ctx context.Context, spec string) (WindowReport, error) {
	d, err := a.opts.Windows.Resolve(spec)
	if err != nil {
		return WindowReport{}, fmt.Errorf("%w: %w", ErrUnknownWindow, err)
	}
	if spec == "" {
		spec = window.Session
	}

	now := a.now()
	storeCtx, cancel := context.WithTimeout(ctx, a.opts.StoreTimeout)
	defer cancel()

	records, err := a.store.RecordsSince(storeCtx, now.Add(-d), now)
	if err != nil {
		return WindowReport{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return WindowReport{
		Window:      spec,
		Duration:    d.String(),
		Counts:      window.Count(records, d, now),
		Statuses:    classifier.Count(records),
		EvaluatedAt: now.UTC(),
	}, nil
}

func (a *Aggregator) collectMetrics(ctx context.Context) (sysmetrics.Metrics, error) {
	if a.metrics == nil {
		return sysmetrics.Metrics{}, fmt.Errorf("no metrics source configured")
	}
	return a.metrics.Collect(ctx)
}

func (a *Aggregator) scanProcesses(ctx context.Context) (procreg.Activity, error) {
	if a.registry == nil {
		return procreg.Activity{}, fmt.Errorf("no process registry configured")
	}
	return a.registry.Scan(ctx)
}

func (a *Aggregator) logMalformed(records []models.ExtractionRecord) {
	var (
		n     int
		first error
	)
	for _, rec := range records {
		if err := classifier.Malformed(rec); err != nil {
			if first == nil {
				first = err
			}
			n++
		}
	}
	if n > 0 {
		a.log.Warn("malformed records classified as pending", "count", n, "example", first)
	}
}
