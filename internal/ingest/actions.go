package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/workflow-stats/internal/common"
	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/db"
	"github.com/dtnitsch/workflow-stats/pkg/refresh"
	"github.com/dtnitsch/workflow-stats/pkg/workflowid"
)

// Summary reports what one ingest run did.
type Summary struct {
	Read     int  `json:"read"`
	Written  int  `json:"written"`
	Skipped  int  `json:"skipped"`
	Notified bool `json:"notified"`
}

// IngestAction loads JSON-lines extraction records into the store, the way the
// scraper writes them. With --notify it signals a running dashboard afterwards.
func IngestAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	cfg, err := common.ResolveConfig(c)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if path := c.String("file"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	summary, err := Records(c.Context, in, database, logger)
	if err != nil {
		return err
	}

	if c.Bool("notify") && summary.Written > 0 {
		ctx, cancel := context.WithTimeout(c.Context, cfg.SignalTimeout)
		defer cancel()
		if err := refresh.NewRemoteSignaler(cfg.RefreshURL).Signal(ctx); err != nil {
			logger.Warn("dashboard not notified", "url", cfg.RefreshURL, "error", err)
		} else {
			summary.Notified = true
		}
	}

	return common.WriteOutput(os.Stdout, summary, c.String("format"))
}

// Writer is the write side of the record store.
type Writer interface {
	UpsertRecord(ctx context.Context, rec models.ExtractionRecord) error
}

// Records reads one JSON object per line from r and upserts each into w.
// Lines that cannot be decoded are skipped and logged; a store error aborts.
func Records(ctx context.Context, r io.Reader, w Writer, logger *slog.Logger) (Summary, error) {
	var summary Summary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		summary.Read++

		rec, err := ParseLine([]byte(line), time.Now())
		if err != nil {
			summary.Skipped++
			logger.Warn("skipping record", "line", lineNo, "error", err)
			continue
		}
		if !workflowid.Valid(rec.WorkflowID) {
			logger.Warn("workflow id is not a decimal integer; it will classify as pending",
				"line", lineNo, "workflow_id", rec.WorkflowID)
		}

		if err := w.UpsertRecord(ctx, rec); err != nil {
			return summary, fmt.Errorf("failed to write line %d: %w", lineNo, err)
		}
		summary.Written++
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("failed to read input: %w", err)
	}

	logger.Info("ingest complete", "read", summary.Read, "written", summary.Written, "skipped", summary.Skipped)
	return summary, nil
}

type recordLine struct {
	WorkflowID    json.RawMessage `json:"workflow_id"`
	Layer1Success bool            `json:"layer1_success"`
	Layer2Success bool            `json:"layer2_success"`
	Layer3Success bool            `json:"layer3_success"`
	ErrorMessage  *string         `json:"error_message"`
	QualityScore  float64         `json:"quality_score"`
	ExtractedAt   *time.Time      `json:"extracted_at"`
}

// ParseLine decodes one record. workflow_id may be a JSON string or number;
// a missing extracted_at defaults to now.
func ParseLine(data []byte, now time.Time) (models.ExtractionRecord, error) {
	var l recordLine
	if err := json.Unmarshal(data, &l); err != nil {
		return models.ExtractionRecord{}, fmt.Errorf("failed to decode record: %w", err)
	}

	id, err := parseID(l.WorkflowID)
	if err != nil {
		return models.ExtractionRecord{}, err
	}

	rec := models.ExtractionRecord{
		WorkflowID:    id,
		Layer1Success: l.Layer1Success,
		Layer2Success: l.Layer2Success,
		Layer3Success: l.Layer3Success,
		ErrorMessage:  l.ErrorMessage,
		QualityScore:  l.QualityScore,
		ExtractedAt:   now,
	}
	if l.ExtractedAt != nil {
		rec.ExtractedAt = *l.ExtractedAt
	}
	return rec, nil
}

func parseID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", fmt.Errorf("workflow_id is required")
	}
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("invalid workflow_id: %w", err)
		}
		if id == "" {
			return "", fmt.Errorf("workflow_id is required")
		}
		return id, nil
	}
	// numeric literal, kept verbatim so large ids survive
	return s, nil
}
