// Package logfields defines the structured log field names shared across
// the codebase so log consumers can rely on stable keys.
package logfields

const (
	Operation  = "operation"
	Category   = "category"
	Strategy   = "strategy"
	RunID      = "run_id"
	DurationMs = "duration_ms"
	SkipReason = "skip_reason"
)
