// Package sysmetrics samples host CPU and memory, probes the record store and
// reports process uptime. Every field can independently be unknown.
package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Reading is one metric value that may be unknown.
type Reading struct {
	Value float64
	Known bool
}

// KnownReading wraps v as a known reading.
func KnownReading(v float64) Reading {
	return Reading{Value: v, Known: true}
}

// Metrics is one sample of the system state.
type Metrics struct {
	CPUPercent    Reading
	MemoryPercent Reading
	// DBReachable is nil when no probe ran.
	DBReachable *bool
	Uptime      time.Duration
	UptimeKnown bool
}

// Pinger probes the record store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Collector gathers Metrics on demand. It keeps no sample between calls.
type Collector struct {
	db  Pinger
	log *slog.Logger

	// Collection functions for mocking
	getCPUPercent func(context.Context, time.Duration, bool) ([]float64, error)
	getMemStats   func(context.Context) (*mem.VirtualMemoryStat, error)
	getStartTime  func(context.Context) (time.Time, error)
	now           func() time.Time
}

// NewCollector creates a collector probing db. db may be nil.
func NewCollector(db Pinger, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	processStart := time.Now()
	return &Collector{
		db:            db,
		log:           log.With("component", "sysmetrics"),
		getCPUPercent: cpu.PercentWithContext,
		getMemStats:   mem.VirtualMemoryWithContext,
		getStartTime: func(ctx context.Context) (time.Time, error) {
			p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
			if err != nil {
				return processStart, nil
			}
			ms, err := p.CreateTimeWithContext(ctx)
			if err != nil {
				return processStart, nil
			}
			return time.UnixMilli(ms), nil
		},
		now: time.Now,
	}
}

// Collect samples every metric within ctx. Failed fields are left unknown and
// reported through the returned error; the Metrics value is always usable.
func (c *Collector) Collect(ctx context.Context) (Metrics, error) {
	var (
		m    Metrics
		errs []error
	)

	// interval 0 compares against the previous call instead of sleeping
	if pcts, err := c.getCPUPercent(ctx, 0, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(pcts) == 0 {
		errs = append(errs, errors.New("cpu: no data returned"))
	} else {
		m.CPUPercent = KnownReading(pcts[0])
	}

	if v, err := c.getMemStats(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		m.MemoryPercent = KnownReading(v.UsedPercent)
	}

	if c.db != nil {
		reachable := c.db.Ping(ctx) == nil
		m.DBReachable = &reachable
	}

	if start, err := c.getStartTime(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uptime: %w", err))
	} else {
		m.Uptime = c.now().Sub(start)
		m.UptimeKnown = true
	}

	if err := errors.Join(errs...); err != nil {
		c.log.Warn("partial system metrics", "error", err)
		return m, err
	}
	return m, nil
}
