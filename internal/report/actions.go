package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/workflow-stats/internal/common"
	"github.com/dtnitsch/workflow-stats/pkg/activity"
	"github.com/dtnitsch/workflow-stats/pkg/stats"
)

// StatsAction prints one snapshot, the same document /api/stats serves.
func StatsAction(c *cli.Context) error {
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

	snap, err := agg.Snapshot(c.Context)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	return common.WriteOutput(os.Stdout, common.FilterResultFields(snap, c.String("fields")), c.String("format"))
}

// RecentAction prints the recent activity feed.
func RecentAction(c *cli.Context) error {
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

	entries, err := agg.Recent(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load recent activity: %w", err)
	}

	if format := c.String("format"); format != "table" {
		return common.WriteOutput(os.Stdout, entries, format)
	}
	PrintRecentTable(os.Stdout, entries)
	return nil
}

// SessionAction prints counts for a named window or an ad-hoc duration.
// Usage: wfstats session [session|diagnostic|90s]
func SessionAction(c *cli.Context) error {
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

	report, err := agg.Window(c.Context, c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to evaluate window: %w", err)
	}

	if format := c.String("format"); format != "table" {
		return common.WriteOutput(os.Stdout, report, format)
	}
	PrintWindowTable(os.Stdout, report)
	return nil
}

// PrintRecentTable writes entries as an aligned table with relative times.
func PrintRecentTable(w io.Writer, entries []activity.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No workflows found")
		return
	}

	fmt.Fprintf(w, "%-12s %-13s %-6s %-8s %-16s %s\n",
		"Workflow", "Status", "Layers", "Score", "Extracted", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, e := range entries {
		errText := e.ErrorText()
		if len(errText) > 40 {
			errText = errText[:37] + "..."
		}
		fmt.Fprintf(w, "%-12s %-13s %-6s %-8.1f %-16s %s\n",
			e.WorkflowID,
			e.Status,
			fmt.Sprintf("%d/3", e.LayerCount()),
			e.QualityScore,
			humanize.Time(e.ExtractedAt),
			errText,
		)
	}
}

// PrintWindowTable writes a window report as label/value lines.
func PrintWindowTable(w io.Writer, r stats.WindowReport) {
	fmt.Fprintf(w, "Window:     %s (%s)\n", r.Window, r.Duration)
	fmt.Fprintf(w, "Evaluated:  %s\n", r.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Total:      %s\n", humanize.Comma(int64(r.Counts.Total)))
	fmt.Fprintf(w, "Success:    %s\n", humanize.Comma(int64(r.Counts.Success)))
	fmt.Fprintf(w, "Failed:     %s\n", humanize.Comma(int64(r.Counts.Failed)))
	fmt.Fprintf(w, "Empty:      %s\n", humanize.Comma(int64(r.Counts.Empty)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-13s %s\n", "Status", "Count")
	fmt.Fprintln(w, strings.Repeat("-", 24))
	fmt.Fprintf(w, "%-13s %d\n", "full_success", r.Statuses.FullSuccess)
	fmt.Fprintf(w, "%-13s %d\n", "partial", r.Statuses.Partial)
	fmt.Fprintf(w, "%-13s %d\n", "failed", r.Statuses.Failed)
	fmt.Fprintf(w, "%-13s %d\n", "invalid", r.Statuses.Invalid)
	fmt.Fprintf(w, "%-13s %d\n", "pending", r.Statuses.Pending)
}
