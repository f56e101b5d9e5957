package models

import (
	"encoding/json"
	"time"
)

// ExtractionRecord is one workflow's extraction result as written by the scraper.
type ExtractionRecord struct {
	WorkflowID    string    `json:"workflow_id"`
	Layer1Success bool      `json:"layer1_success"`
	Layer2Success bool      `json:"layer2_success"`
	Layer3Success bool      `json:"layer3_success"`
	ErrorMessage  *string   `json:"error_message"` // nil when no phase recorded an error
	QualityScore  float64   `json:"quality_score"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// HasError reports whether a non-empty error message was recorded.
func (r ExtractionRecord) HasError() bool {
	return r.ErrorMessage != nil && *r.ErrorMessage != ""
}

// ErrorText returns the error message or "" when none was recorded.
func (r ExtractionRecord) ErrorText() string {
	if r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}

// LayerCount returns how many of the three layers succeeded.
func (r ExtractionRecord) LayerCount() int {
	n := 0
	for _, ok := range []bool{r.Layer1Success, r.Layer2Success, r.Layer3Success} {
		if ok {
			n++
		}
	}
	return n
}

// MarshalJSON always renders extracted_at in UTC.
func (r ExtractionRecord) MarshalJSON() ([]byte, error) {
	type alias ExtractionRecord
	out := alias(r)
	out.ExtractedAt = r.ExtractedAt.UTC()
	return json.Marshal(out)
}

// StringPtr returns a pointer to s, or nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
