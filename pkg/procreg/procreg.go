// Package procreg reports whether scraper worker processes are running by
// scanning the host process table.
package procreg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Activity is what the dashboard shows about scraping.
type Activity struct {
	Active  bool
	Workers int
}

// procInfo is the part of a process the registry looks at.
type procInfo struct {
	PID     int32
	Cmdline string
}

// Registry matches process command lines against a pattern.
type Registry struct {
	pattern string
	self    int32
	log     *slog.Logger

	// Listing function for mocking
	listProcs func(context.Context) ([]procInfo, error)
}

// NewRegistry creates a registry counting processes whose command line
// contains pattern (case-insensitive). The current process is never counted.
func NewRegistry(pattern string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		pattern:   strings.ToLower(pattern),
		self:      int32(os.Getpid()),
		log:       log.With("component", "procreg"),
		listProcs: listHostProcs,
	}
}

// Scan counts matching processes. Processes that exit or deny access while
// being inspected are skipped.
func (r *Registry) Scan(ctx context.Context) (Activity, error) {
	if r.pattern == "" {
		return Activity{}, nil
	}

	procs, err := r.listProcs(ctx)
	if err != nil {
		return Activity{}, fmt.Errorf("failed to list processes: %w", err)
	}

	var a Activity
	for _, p := range procs {
		if p.PID == r.self {
			continue
		}
		if strings.Contains(strings.ToLower(p.Cmdline), r.pattern) {
			a.Workers++
		}
	}
	a.Active = a.Workers > 0

	r.log.Debug("process scan complete", "pattern", r.pattern, "workers", a.Workers, "scanned", len(procs))
	return a, nil
}

func listHostProcs(ctx context.Context) ([]procInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]procInfo, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, procInfo{PID: p.Pid, Cmdline: cmdline})
	}
	return infos, nil
}
