// Package window counts extraction records inside a time window that ends at
// evaluation time. Nothing is cached; every call re-evaluates "now".
package window

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dtnitsch/workflow-stats/models"
	"github.com/dtnitsch/workflow-stats/pkg/classifier"
)

const (
	Session    = "session"
	Diagnostic = "diagnostic"
)

// Counts are the per-window totals reported to pollers.
type Counts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	// Empty is reserved for zero-content extractions; the store does not
	// record them separately yet, so it is always 0.
	Empty int `json:"empty"`
	Total int `json:"total"`
}

// Contains reports whether t falls in [now-d, now].
func Contains(t time.Time, d time.Duration, now time.Time) bool {
	return !t.Before(now.Add(-d)) && !t.After(now)
}

// Filter returns the records whose extracted_at falls in the window.
func Filter(records []models.ExtractionRecord, d time.Duration, now time.Time) []models.ExtractionRecord {
	out := make([]models.ExtractionRecord, 0)
	for _, rec := range records {
		if Contains(rec.ExtractedAt, d, now) {
			out = append(out, rec)
		}
	}
	return out
}

// Count tallies the records inside the window ending at now.
func Count(records []models.ExtractionRecord, d time.Duration, now time.Time) Counts {
	var c Counts
	for _, rec := range records {
		if !Contains(rec.ExtractedAt, d, now) {
			continue
		}
		c.Total++
		if rec.QualityScore > 0 && classifier.ValidScore(rec.QualityScore) {
			c.Success++
		}
		if rec.HasError() {
			c.Failed++
		}
	}
	return c
}

// Set is a collection of named windows.
type Set map[string]time.Duration

// NewSet builds the default session and diagnostic windows.
func NewSet(session, diagnostic time.Duration) Set {
	return Set{Session: session, Diagnostic: diagnostic}
}

// Resolve returns the duration for a window name, or parses spec as a Go
// duration when it names no window.
func (s Set) Resolve(spec string) (time.Duration, error) {
	if spec == "" {
		spec = Session
	}
	if d, ok := s[spec]; ok {
		return d, nil
	}
	d, err := time.ParseDuration(spec)
	if err != nil {
		return 0, fmt.Errorf("unknown window %q (known: %s)", spec, strings.Join(s.Names(), ", "))
	}
	if d <= 0 {
		return 0, fmt.Errorf("window duration must be positive, got %s", d)
	}
	return d, nil
}

// Names returns the window names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
