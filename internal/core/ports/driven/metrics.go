package driven

import "time"

// Metrics is the observability sink for the sync pipeline. Implementations
// must be safe for concurrent use and must never block the caller.
type Metrics interface {
	// CountOp increments the success or error counter for an operation
	// (e.g. "process_document", "scan_cycle").
	CountOp(op string, success bool)

	// ObserveDuration records how long an operation took.
	ObserveDuration(op string, d time.Duration)
}
