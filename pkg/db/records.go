package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
)

const recordColumns = `workflow_id, layer1_success, layer2_success, layer3_success,
	error_message, quality_score, extracted_at`

// AllRecords returns every workflow record.
func (db *DB) AllRecords(ctx context.Context) ([]models.ExtractionRecord, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+recordColumns+" FROM workflows")
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	return scanRecords(rows)
}

// RecordsSince returns records with extracted_at in [cutoff, now].
func (db *DB) RecordsSince(ctx context.Context, cutoff, now time.Time) ([]models.ExtractionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM workflows
		WHERE extracted_at >= ? AND extracted_at <= ?
	`, cutoff.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows since %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	return scanRecords(rows)
}

// RecentRecords returns the k most recent records plus any records tied with
// the k-th timestamp, so callers can break ties without losing rows at the boundary.
// Ordering by workflow id is left to the caller since ids are numeric text.
func (db *DB) RecentRecords(ctx context.Context, k int) ([]models.ExtractionRecord, error) {
	if k <= 0 {
		return []models.ExtractionRecord{}, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM workflows
		WHERE extracted_at >= COALESCE(
			(SELECT extracted_at FROM workflows ORDER BY extracted_at DESC LIMIT 1 OFFSET ?),
			?)
		ORDER BY extracted_at DESC
	`, k-1, int64(math.MinInt64))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent workflows: %w", err)
	}
	return scanRecords(rows)
}

// CountRecords returns the number of workflow rows.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count workflows: %w", err)
	}
	return n, nil
}

// UpsertRecord writes a record the way the scraper does: one row per workflow,
// replaced on re-extraction. extracted_at never moves backwards.
func (db *DB) UpsertRecord(ctx context.Context, rec models.ExtractionRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO workflows (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workflow_id) DO UPDATE SET
			layer1_success = excluded.layer1_success,
			layer2_success = excluded.layer2_success,
			layer3_success = excluded.layer3_success,
			error_message = excluded.error_message,
			quality_score = excluded.quality_score,
			extracted_at = MAX(workflows.extracted_at, excluded.extracted_at)
	`, rec.WorkflowID, rec.Layer1Success, rec.Layer2Success, rec.Layer3Success,
		nullString(rec.ErrorMessage), rec.QualityScore, rec.ExtractedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert workflow %s: %w", rec.WorkflowID, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.ExtractionRecord, error) {
	defer rows.Close()

	records := []models.ExtractionRecord{}
	for rows.Next() {
		var (
			rec         models.ExtractionRecord
			errMsg      sql.NullString
			extractedAt int64
		)
		if err := rows.Scan(
			&rec.WorkflowID,
			&rec.Layer1Success,
			&rec.Layer2Success,
			&rec.Layer3Success,
			&errMsg,
			&rec.QualityScore,
			&extractedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		if errMsg.Valid {
			msg := errMsg.String
			rec.ErrorMessage = &msg
		}
		rec.ExtractedAt = time.Unix(0, extractedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}
	return records, nil
}

// nullString maps an optional string to a nullable column.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}
