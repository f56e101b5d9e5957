package stats

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/activity"
	"github.com/dtnitsch/workflow-stats/pkg/classifier"
	"github.com/dtnitsch/workflow-stats/pkg/sysmetrics"
	"github.com/dtnitsch/workflow-stats/pkg/window"
)

// Unknown is the wire value of a field whose source was unavailable.
const Unknown = "unknown"

const (
	DBConnected    = "connected"
	DBDisconnected = "disconnected"
)

// Snapshot is one fully composed answer to a statistics query.
// It is built per request and never shared.
type Snapshot struct {
	classifier.Counts

	CurrentSessionSuccess int `json:"current_session_success"`
	CurrentSessionFailed  int `json:"current_session_failed"`
	CurrentSessionEmpty   int `json:"current_session_empty"`
	CurrentSessionTotal   int `json:"current_session_total"`

	SuccessRate float64 `json:"success_rate"`

	DBStatus    string  `json:"db_status"`
	CPUUsage    Percent `json:"cpu_usage"`
	MemoryUsage Percent `json:"memory_usage"`
	Uptime      string  `json:"uptime"`

	IsScraping      bool        `json:"is_scraping"`
	ActiveProcesses OptionalInt `json:"active_processes"`

	RecentActivity   []activity.Entry `json:"recent_activity"`
	CurrentWorkflow  *CurrentWorkflow `json:"current_workflow,omitempty"`
	ScrapingProgress *Progress        `json:"scraping_progress,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// SessionCounts returns the session fields as window counts.
func (s Snapshot) SessionCounts() window.Counts {
	return window.Counts{
		Success: s.CurrentSessionSuccess,
		Failed:  s.CurrentSessionFailed,
		Empty:   s.CurrentSessionEmpty,
		Total:   s.CurrentSessionTotal,
	}
}

// CurrentWorkflow is the most recently updated workflow.
type CurrentWorkflow struct {
	WorkflowID  string                `json:"workflow_id"`
	Status      models.StatusCategory `json:"status"`
	ExtractedAt string                `json:"extracted_at"`
}

// Progress summarizes the session while scraping is active.
type Progress struct {
	Processed  int     `json:"processed"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	PerMinute  float64 `json:"per_minute"`
}

// Percent encodes a reading as a one-decimal number, or "unknown".
type Percent sysmetrics.Reading

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Known || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return json.Marshal(Unknown)
	}
	return []byte(strconv.FormatFloat(classifier.Round1(p.Value), 'f', 1, 64)), nil
}

// OptionalInt encodes an integer, or "unknown".
type OptionalInt struct {
	Value int
	Known bool
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Known {
		return json.Marshal(Unknown)
	}
	return json.Marshal(o.Value)
}

// dbStatus maps a reachability probe to its wire value.
func dbStatus(reachable *bool) string {
	switch {
	case reachable == nil:
		return Unknown
	case *reachable:
		return DBConnected
	default:
		return DBDisconnected
	}
}

// formatUptime truncates to whole seconds.
func formatUptime(m sysmetrics.Metrics) string {
	if !m.UptimeKnown {
		return Unknown
	}
	return m.Uptime.Truncate(time.Second).String()
}

// WindowReport is the diagnostic view of one window.
type WindowReport struct {
	Window      string            `json:"window"`
	Duration    string            `json:"duration"`
	Counts      window.Counts     `json:"counts"`
	Statuses    classifier.Counts `json:"statuses"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}
