package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Every pooled connection to :memory: is a separate database
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func insert(t *testing.T, db *DB, rec models.ExtractionRecord) {
	t.Helper()
	if err := db.UpsertRecord(context.Background(), rec); err != nil {
		t.Fatalf("UpsertRecord(%s) error = %v", rec.WorkflowID, err)
	}
}

func TestUpsertRecord_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	want := models.ExtractionRecord{
		WorkflowID:    "1234",
		Layer1Success: true,
		Layer2Success: true,
		ErrorMessage:  models.StringPtr("layer3: no iframe"),
		QualityScore:  55.5,
		ExtractedAt:   now,
	}
	insert(t, db, want)

	got, err := db.AllRecords(context.Background())
	if err != nil {
		t.Fatalf("AllRecords() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("AllRecords() returned %d records, want 1", len(got))
	}

	r := got[0]
	if r.WorkflowID != want.WorkflowID || !r.Layer1Success || !r.Layer2Success || r.Layer3Success {
		t.Errorf("record = %+v, want %+v", r, want)
	}
	if r.ErrorText() != "layer3: no iframe" {
		t.Errorf("ErrorText() = %q, want %q", r.ErrorText(), "layer3: no iframe")
	}
	if r.QualityScore != 55.5 {
		t.Errorf("QualityScore = %v, want 55.5", r.QualityScore)
	}
	if !r.ExtractedAt.Equal(now) {
		t.Errorf("ExtractedAt = %s, want %s", r.ExtractedAt, now)
	}
}

func TestUpsertRecord_NullError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insert(t, db, models.ExtractionRecord{WorkflowID: "1", ExtractedAt: now})

	got, err := db.AllRecords(context.Background())
	if err != nil {
		t.Fatalf("AllRecords() error = %v", err)
	}
	if got[0].ErrorMessage != nil {
		t.Errorf("ErrorMessage = %q, want nil", *got[0].ErrorMessage)
	}
}

func TestUpsertRecord_ExtractedAtNeverRegresses(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insert(t, db, models.ExtractionRecord{WorkflowID: "7", ExtractedAt: now})
	insert(t, db, models.ExtractionRecord{WorkflowID: "7", Layer1Success: true, ExtractedAt: now.Add(-time.Hour)})

	got, err := db.AllRecords(context.Background())
	if err != nil {
		t.Fatalf("AllRecords() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("AllRecords() returned %d records, want 1", len(got))
	}
	if !got[0].ExtractedAt.Equal(now) {
		t.Errorf("ExtractedAt = %s, want %s", got[0].ExtractedAt, now)
	}
	if !got[0].Layer1Success {
		t.Error("Layer1Success = false, want update applied")
	}
}

func TestRecordsSince(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insert(t, db, models.ExtractionRecord{WorkflowID: "1", ExtractedAt: now.Add(-time.Minute)})
	insert(t, db, models.ExtractionRecord{WorkflowID: "2", ExtractedAt: now.Add(-6 * time.Minute)})
	insert(t, db, models.ExtractionRecord{WorkflowID: "3", ExtractedAt: now.Add(-11 * time.Minute)})

	tests := []struct {
		window time.Duration
		want   int
	}{
		{5 * time.Minute, 1},
		{10 * time.Minute, 2},
		{time.Hour, 3},
	}

	for _, tt := range tests {
		got, err := db.RecordsSince(context.Background(), now.Add(-tt.window), now)
		if err != nil {
			t.Fatalf("RecordsSince(%s) error = %v", tt.window, err)
		}
		if len(got) != tt.want {
			t.Errorf("RecordsSince(%s) returned %d records, want %d", tt.window, len(got), tt.want)
		}
	}
}

func TestRecentRecords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for i, id := range []string{"1", "2", "3", "4", "5"} {
		insert(t, db, models.ExtractionRecord{WorkflowID: id, ExtractedAt: now.Add(time.Duration(i) * time.Second)})
	}
	// Two more rows tied with workflow 3
	insert(t, db, models.ExtractionRecord{WorkflowID: "30", ExtractedAt: now.Add(2 * time.Second)})
	insert(t, db, models.ExtractionRecord{WorkflowID: "31", ExtractedAt: now.Add(2 * time.Second)})

	got, err := db.RecentRecords(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecentRecords() error = %v", err)
	}
	// 5, 4 and every row at the 3rd timestamp
	if len(got) != 5 {
		t.Errorf("RecentRecords(3) returned %d records, want 5", len(got))
	}

	got, err = db.RecentRecords(context.Background(), 100)
	if err != nil {
		t.Fatalf("RecentRecords() error = %v", err)
	}
	if len(got) != 7 {
		t.Errorf("RecentRecords(100) returned %d records, want 7", len(got))
	}

	got, err = db.RecentRecords(context.Background(), 0)
	if err != nil || len(got) != 0 {
		t.Errorf("RecentRecords(0) = %d records, %v; want none", len(got), err)
	}
}

func TestCountRecords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insert(t, db, models.ExtractionRecord{WorkflowID: "1", ExtractedAt: now})
	insert(t, db, models.ExtractionRecord{WorkflowID: "2", ExtractedAt: now})
	insert(t, db, models.ExtractionRecord{WorkflowID: "2", ExtractedAt: now})

	n, err := db.CountRecords(context.Background())
	if err != nil {
		t.Fatalf("CountRecords() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountRecords() = %d, want 2", n)
	}
}

func TestPing_Closed(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	db.Close()
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping() on closed database error = nil, want error")
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := db.CountRecords(context.Background()); err != nil {
		t.Errorf("CountRecords() on fresh database error = %v", err)
	}

	// Reopening an initialized database must not fail
	db2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	db2.Close()
}
