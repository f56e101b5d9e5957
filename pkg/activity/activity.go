// Package activity builds the recent-activity feed shown on the live dashboard.
package activity

import (
	"encoding/json"
	"sort"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/classifier"
	"github.com/dtnitsch/workflow-stats/pkg/workflowid"
)

// Limit is the fixed size of the feed.
const Limit = 10

// Entry is one feed row: the record plus its derived status.
type Entry struct {
	models.ExtractionRecord
	Status models.StatusCategory `json:"status"`
}

// MarshalJSON flattens the record fields next to status.
func (e Entry) MarshalJSON() ([]byte, error) {
	type flat struct {
		WorkflowID    string                `json:"workflow_id"`
		Layer1Success bool                  `json:"layer1_success"`
		Layer2Success bool                  `json:"layer2_success"`
		Layer3Success bool                  `json:"layer3_success"`
		ErrorMessage  *string               `json:"error_message"`
		QualityScore  float64               `json:"quality_score"`
		ExtractedAt   string                `json:"extracted_at"`
		Status        models.StatusCategory `json:"status"`
	}
	return json.Marshal(flat{
		WorkflowID:    e.WorkflowID,
		Layer1Success: e.Layer1Success,
		Layer2Success: e.Layer2Success,
		Layer3Success: e.Layer3Success,
		ErrorMessage:  e.ErrorMessage,
		QualityScore:  e.QualityScore,
		ExtractedAt:   FormatTime(e.ExtractedAt),
		Status:        e.Status,
	})
}

// Newer reports whether a sorts before b in the feed: later extracted_at
// first, ties broken by numerically larger workflow id.
func Newer(a, b models.ExtractionRecord) bool {
	if !a.ExtractedAt.Equal(b.ExtractedAt) {
		return a.ExtractedAt.After(b.ExtractedAt)
	}
	return workflowid.Compare(a.WorkflowID, b.WorkflowID) > 0
}

// Top returns at most k entries ordered newest first. The input is not modified.
func Top(records []models.ExtractionRecord, k int) []Entry {
	sorted := make([]models.ExtractionRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return Newer(sorted[i], sorted[j])
	})

	limit := k
	if len(sorted) < k {
		limit = len(sorted)
	}
	if limit < 0 {
		limit = 0
	}

	entries := make([]Entry, limit)
	for i := 0; i < limit; i++ {
		entries[i] = Entry{
			ExtractionRecord: sorted[i],
			Status:           classifier.Classify(sorted[i]),
		}
	}
	return entries
}

// Feed returns the fixed-size feed for records.
func Feed(records []models.ExtractionRecord) []Entry {
	return Top(records, Limit)
}
