// Package refresh runs the dashboard refresh loop: it recomputes a snapshot on
// a fixed interval, or immediately when signalled, and publishes the result
// as Prometheus gauges.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// Snapshotter builds snapshots.
type Snapshotter interface {
	Snapshot(ctx context.Context) (stats.Snapshot, error)
}

const (
	reasonTick   = "tick"
	reasonSignal = "signal"
	reasonStart  = "start"
)

// Loop is the refresh loop. Signal is safe to call from any goroutine.
type Loop struct {
	agg      Snapshotter
	interval time.Duration
	gauges   *Gauges
	log      *slog.Logger

	signals chan struct{}
	running atomic.Bool
	// done receives the reason after each refresh when set; tests use it to wait.
	done chan string
}

// NewLoop creates a loop refreshing every interval.
func NewLoop(agg Snapshotter, interval time.Duration, gauges *Gauges, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Loop{
		agg:      agg,
		interval: interval,
		gauges:   gauges,
		log:      log.With("component", "refresh"),
		signals:  make(chan struct{}, 1),
	}
}

// Run refreshes until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("refresh loop already running")
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Info("refresh loop started", "interval", l.interval)
	l.refresh(ctx, reasonStart)

	for {
		select {
		case <-ctx.Done():
			l.log.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
			l.refresh(ctx, reasonTick)
		case <-l.signals:
			l.refresh(ctx, reasonSignal)
		}
	}
}

// Signal asks the loop to refresh now. It never blocks: a signal arriving
// while another is pending is merged into it. It fails only when the loop is
// not running or ctx is already done.
func (l *Loop) Signal(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", stats.ErrSignalDeliveryFailed, err)
	}
	if !l.running.Load() {
		return fmt.Errorf("%w: refresh loop not running", stats.ErrSignalDeliveryFailed)
	}

	select {
	case l.signals <- struct{}{}:
	default:
		// refresh already pending
	}
	return nil
}

func (l *Loop) refresh(ctx context.Context, reason string) {
	start := time.Now()
	snap, err := l.agg.Snapshot(ctx)
	if l.gauges != nil {
		l.gauges.Refreshes.WithLabelValues(reason).Inc()
	}
	if err != nil {
		if l.gauges != nil {
			l.gauges.RefreshErrors.Inc()
		}
		l.log.Error("refresh failed", "reason", reason, "error", err)
		l.notify(reason)
		return
	}

	if l.gauges != nil {
		l.gauges.Observe(snap)
	}
	l.log.Info("dashboard refreshed",
		"reason", reason,
		"total", snap.Total,
		"session_total", snap.CurrentSessionTotal,
		"success_rate", snap.SuccessRate,
		"is_scraping", snap.IsScraping,
		"duration", time.Since(start))
	l.notify(reason)
}

func (l *Loop) notify(reason string) {
	if l.done == nil {
		return
	}
	select {
	case l.done <- reason:
	default:
	}
}
