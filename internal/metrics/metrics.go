// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeDuplicateEmail     = "duplicate_email"
	OutcomeValid              = "valid"
	OutcomeMissing            = "missing"
	OutcomeInvalid            = "invalid"
)

// Resource labels for ownership denials.
const (
	ResourceBook    = "book"
	ResourceAccount = "account"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Authentication metrics
	IncLogin(outcome string)
	IncRegistration(outcome string)
	IncTokenValidation(outcome string)
	IncOwnershipDenied(resource string)

	// Book metrics
	IncBookCreated()
	IncBookUpdated()
	IncBookDeleted()
	IncBookListCacheHit()
	IncBookListCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
