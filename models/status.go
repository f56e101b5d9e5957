package models

// StatusCategory is the derived status of a workflow. It is never stored.
type StatusCategory string

const (
	StatusFullSuccess StatusCategory = "full_success" // all three layers succeeded
	StatusInvalid     StatusCategory = "invalid"      // content legitimately absent
	StatusFailed      StatusCategory = "failed"       // extraction attempt failed
	StatusPartial     StatusCategory = "partial"      // some layers succeeded, no error
	StatusPending     StatusCategory = "pending"      // not attempted yet or in flight
)

// AllStatuses lists every category in classification priority order.
var AllStatuses = []StatusCategory{
	StatusFullSuccess,
	StatusInvalid,
	StatusFailed,
	StatusPartial,
	StatusPending,
}

func (s StatusCategory) String() string {
	return string(s)
}
