package classifier

import (
	"math"

	"github.com/dtnitsch/workflow-stats/models"
)

// Counts tallies records per status category.
type Counts struct {
	FullSuccess int `json:"fully_successful"`
	Partial     int `json:"partial_success"`
	Failed      int `json:"failed"`
	Invalid     int `json:"invalid"`
	Pending     int `json:"pending"`
	Total       int `json:"total_workflows"`
}

// Add counts one record of the given status.
func (c *Counts) Add(status models.StatusCategory) {
	switch status {
	case models.StatusFullSuccess:
		c.FullSuccess++
	case models.StatusPartial:
		c.Partial++
	case models.StatusFailed:
		c.Failed++
	case models.StatusInvalid:
		c.Invalid++
	default:
		c.Pending++
	}
	c.Total++
}

// Of returns the count for one category.
func (c Counts) Of(status models.StatusCategory) int {
	switch status {
	case models.StatusFullSuccess:
		return c.FullSuccess
	case models.StatusPartial:
		return c.Partial
	case models.StatusFailed:
		return c.Failed
	case models.StatusInvalid:
		return c.Invalid
	case models.StatusPending:
		return c.Pending
	}
	return 0
}

// SuccessRate is the share of fully successful records as a percentage
// rounded to one decimal place. It is 0 for an empty set.
func (c Counts) SuccessRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return Round1(float64(c.FullSuccess) / float64(c.Total) * 100)
}

// Count classifies every record and tallies the result.
func Count(records []models.ExtractionRecord) Counts {
	var c Counts
	for _, rec := range records {
		c.Add(Classify(rec))
	}
	return c
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
