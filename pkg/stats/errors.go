package stats

import "errors"

var (
	// ErrStoreUnavailable means no snapshot can be built for this request.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrMetricsUnavailable marks degraded system-metrics fields.
	ErrMetricsUnavailable = errors.New("system metrics unavailable")
	// ErrSignalDeliveryFailed is returned when a refresh signal was not accepted.
	ErrSignalDeliveryFailed = errors.New("refresh signal not delivered")
	// ErrUnknownWindow is returned for a window name or duration that cannot be resolved.
	ErrUnknownWindow = errors.New("unknown window")
)
