package activity

import "time"

// TimeLayout is the wire format for extracted_at: RFC 3339 in UTC.
const TimeLayout = time.RFC3339Nano

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
