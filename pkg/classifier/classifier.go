// Package classifier maps extraction records to exactly one status category.
//
// Classification walks a fixed priority list and the first matching rule wins,
// so every record lands in one category and the categories partition any record set.
package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/workflowid"
)

// InvalidMarkers are lowercase substrings of an error message meaning the
// content does not exist, as opposed to a failed attempt.
var InvalidMarkers = []string{"404", "no iframe", "no content", "empty"}

// Rule is one entry of the priority list.
type Rule struct {
	Status models.StatusCategory
	Match  func(models.ExtractionRecord) bool
}

var rules = []Rule{
	{Status: models.StatusFullSuccess, Match: allLayers},
	{Status: models.StatusInvalid, Match: invalidError},
	{Status: models.StatusFailed, Match: failedError},
	{Status: models.StatusPartial, Match: someLayers},
	{Status: models.StatusPending, Match: func(models.ExtractionRecord) bool { return true }},
}

// Rules returns a copy of the priority list in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the status category of rec. Malformed records are Pending.
func Classify(rec models.ExtractionRecord) models.StatusCategory {
	if Malformed(rec) != nil {
		return models.StatusPending
	}
	for _, r := range rules {
		if r.Match(rec) {
			return r.Status
		}
	}
	return models.StatusPending
}

// Malformed returns a non-nil error describing why rec cannot be classified normally.
func Malformed(rec models.ExtractionRecord) error {
	if !workflowid.Valid(rec.WorkflowID) {
		return fmt.Errorf("malformed record: workflow_id %q is not a decimal integer", rec.WorkflowID)
	}
	if !ValidScore(rec.QualityScore) {
		return fmt.Errorf("malformed record %s: quality_score %v out of range [0, 100]", rec.WorkflowID, rec.QualityScore)
	}
	return nil
}

// ValidScore reports whether score lies in [0, 100].
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0 && score <= 100
}

func allLayers(rec models.ExtractionRecord) bool {
	return rec.Layer1Success && rec.Layer2Success && rec.Layer3Success
}

func invalidError(rec models.ExtractionRecord) bool {
	if !rec.HasError() {
		return false
	}
	msg := strings.ToLower(rec.ErrorText())
	for _, marker := range InvalidMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func failedError(rec models.ExtractionRecord) bool {
	return rec.HasError()
}

func someLayers(rec models.ExtractionRecord) bool {
	n := rec.LayerCount()
	return n > 0 && n < 3 && !rec.HasError()
}
