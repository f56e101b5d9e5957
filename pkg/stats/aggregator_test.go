package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/procreg"
	"github.com/dtnitsch/workflow-stats/pkg/sysmetrics"
	"github.com/dtnitsch/workflow-stats/pkg/window"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	records []models.ExtractionRecord
	err     error
}

func (f *fakeStore) AllRecords(ctx context.Context) ([]models.ExtractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeStore) RecordsSince(ctx context.Context, cutoff, end time.Time) ([]models.ExtractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return window.Filter(f.records, end.Sub(cutoff), end), nil
}

func (f *fakeStore) RecentRecords(ctx context.Context, k int) ([]models.ExtractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeMetrics struct {
	m   sysmetrics.Metrics
	err error
}

func (f fakeMetrics) Collect(context.Context) (sysmetrics.Metrics, error) { return f.m, f.err }

type fakeRegistry struct {
	a   procreg.Activity
	err error
}

func (f fakeRegistry) Scan(context.Context) (procreg.Activity, error) { return f.a, f.err }

func healthyMetrics() fakeMetrics {
	reachable := true
	return fakeMetrics{m: sysmetrics.Metrics{
		CPUPercent:    sysmetrics.KnownReading(23.456),
		MemoryPercent: sysmetrics.KnownReading(70),
		DBReachable:   &reachable,
		Uptime:        2*time.Hour + 3*time.Second + 400*time.Millisecond,
		UptimeKnown:   true,
	}}
}

func newTestAggregator(store RecordStore, m MetricsSource, r ProcessRegistry) *Aggregator {
	a := NewAggregator(store, m, r, Options{}, slog.Default())
	a.now = func() time.Time { return now }
	return a
}

func scenarioRecords() []models.ExtractionRecord {
	return []models.ExtractionRecord{
		{
			WorkflowID:    "1",
			Layer1Success: true,
			Layer2Success: true,
			Layer3Success: true,
			QualityScore:  90,
			ExtractedAt:   now.Add(-time.Minute),
		},
		{
			WorkflowID:   "2",
			ErrorMessage: models.StringPtr("404"),
			ExtractedAt:  now.Add(-2 * time.Minute),
		},
	}
}

func TestSnapshot_Scenario(t *testing.T) {
	a := newTestAggregator(&fakeStore{records: scenarioRecords()}, healthyMetrics(), fakeRegistry{})

	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.Total != 2 || snap.FullSuccess != 1 || snap.Invalid != 1 {
		t.Errorf("counts = %+v, want total 2, full 1, invalid 1", snap.Counts)
	}
	if snap.CurrentSessionTotal != 2 || snap.CurrentSessionSuccess != 1 {
		t.Errorf("session total/success = %d/%d, want 2/1", snap.CurrentSessionTotal, snap.CurrentSessionSuccess)
	}
	if snap.CurrentSessionFailed != 1 {
		t.Errorf("CurrentSessionFailed = %d, want 1", snap.CurrentSessionFailed)
	}
	if snap.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", snap.SuccessRate)
	}
	if snap.CurrentWorkflow == nil || snap.CurrentWorkflow.WorkflowID != "1" {
		t.Errorf("CurrentWorkflow = %+v, want workflow 1", snap.CurrentWorkflow)
	}
	if snap.ScrapingProgress != nil {
		t.Errorf("ScrapingProgress = %+v, want nil while idle", snap.ScrapingProgress)
	}
	if snap.DBStatus != DBConnected || snap.Uptime != "2h0m3s" {
		t.Errorf("db_status/uptime = %s/%s, want connected/2h0m3s", snap.DBStatus, snap.Uptime)
	}
}

func TestSnapshot_JSONFields(t *testing.T) {
	a := newTestAggregator(&fakeStore{records: scenarioRecords()}, healthyMetrics(), fakeRegistry{a: procreg.Activity{Active: true, Workers: 3}})

	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	for _, key := range []string{
		"total_workflows", "fully_successful", "partial_success", "failed", "invalid", "pending",
		"current_session_success", "current_session_failed", "current_session_total",
		"db_status", "cpu_usage", "memory_usage", "uptime", "is_scraping", "active_processes",
		"success_rate", "current_workflow", "scraping_progress",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("snapshot JSON missing %q", key)
		}
	}
	if got["cpu_usage"] != 23.5 {
		t.Errorf("cpu_usage = %v, want 23.5", got["cpu_usage"])
	}
	if got["active_processes"] != float64(3) || got["is_scraping"] != true {
		t.Errorf("active_processes/is_scraping = %v/%v, want 3/true", got["active_processes"], got["is_scraping"])
	}
	progress, _ := got["scraping_progress"].(map[string]interface{})
	if progress["processed"] != float64(2) || progress["per_minute"] != 0.4 {
		t.Errorf("scraping_progress = %v, want processed 2 and 0.4/min", progress)
	}
}

func TestSnapshot_MetricsUnavailable(t *testing.T) {
	a := newTestAggregator(
		&fakeStore{records: scenarioRecords()},
		fakeMetrics{err: errors.New("gopsutil: not supported")},
		fakeRegistry{err: errors.New("no /proc")},
	)

	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v, want degraded snapshot", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, key := range []string{"cpu_usage", "memory_usage", "uptime", "db_status", "active_processes"} {
		if got[key] != Unknown {
			t.Errorf("%s = %v, want %q", key, got[key], Unknown)
		}
	}
	if got["is_scraping"] != false {
		t.Errorf("is_scraping = %v, want false", got["is_scraping"])
	}
	if got["total_workflows"] != float64(2) {
		t.Errorf("total_workflows = %v, want 2", got["total_workflows"])
	}
}

func TestSnapshot_NilCollaborators(t *testing.T) {
	a := newTestAggregator(&fakeStore{}, nil, nil)

	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.DBStatus != Unknown || snap.CPUUsage.Known || snap.ActiveProcesses.Known {
		t.Errorf("expected unknown collaborator fields, got %+v", snap)
	}
	if snap.CurrentWorkflow != nil || len(snap.RecentActivity) != 0 {
		t.Errorf("empty store produced activity: %+v", snap.RecentActivity)
	}
}

func TestSnapshot_StoreUnavailable(t *testing.T) {
	a := newTestAggregator(&fakeStore{err: errors.New("connection refused")}, healthyMetrics(), fakeRegistry{})

	_, err := a.Snapshot(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Snapshot() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestSnapshot_SessionExcludesOldRecords(t *testing.T) {
	records := append(scenarioRecords(), models.ExtractionRecord{
		WorkflowID:    "3",
		Layer1Success: true,
		QualityScore:  30,
		ExtractedAt:   now.Add(-6 * time.Minute),
	})
	a := newTestAggregator(&fakeStore{records: records}, healthyMetrics(), fakeRegistry{})

	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Total != 3 || snap.CurrentSessionTotal != 2 || snap.Partial != 1 {
		t.Errorf("total/session/partial = %d/%d/%d, want 3/2/1", snap.Total, snap.CurrentSessionTotal, snap.Partial)
	}

	report, err := a.Window(context.Background(), window.Diagnostic)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if report.Counts.Total != 3 || report.Duration != "10m0s" {
		t.Errorf("diagnostic window = %+v, want 3 records over 10m0s", report)
	}
}

func TestWindow_Errors(t *testing.T) {
	a := newTestAggregator(&fakeStore{}, nil, nil)
	if _, err := a.Window(context.Background(), "fortnight"); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("Window(fortnight) error = %v, want ErrUnknownWindow", err)
	}

	a = newTestAggregator(&fakeStore{err: errors.New("down")}, nil, nil)
	if _, err := a.Window(context.Background(), ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Window() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestRecent(t *testing.T) {
	var records []models.ExtractionRecord
	for i := 0; i < 12; i++ {
		records = append(records, models.ExtractionRecord{
			WorkflowID:  string(rune('1' + i%9)),
			ExtractedAt: now.Add(-time.Duration(i) * time.Second),
		})
	}
	a := newTestAggregator(&fakeStore{records: records}, nil, nil)

	first, err := a.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	second, err := a.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(first) != 10 {
		t.Errorf("len(Recent()) = %d, want 10", len(first))
	}

	a1, _ := json.Marshal(first)
	a2, _ := json.Marshal(second)
	if string(a1) != string(a2) {
		t.Error("Recent() differs between polls with no writes")
	}

	a = newTestAggregator(&fakeStore{err: errors.New("down")}, nil, nil)
	if _, err := a.Recent(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Recent() error = %v, want ErrStoreUnavailable", err)
	}
}
