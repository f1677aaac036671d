package runs

import "time"

// Run is an immutable, append-only journal record of one generation batch.
//
// Invariants:
// - Runs are never updated or deleted.
// - Journaling is best-effort; a failed append must not block generation.
//
// Storage recommendation (Postgres):
// - Table call_logd_runs with an INSERT-only policy.
// - Optional: partition by time for retention.

type Run struct {
	ID string `json:"id" db:"id"`

	// Trigger indicates what started the batch.
	Trigger Trigger `json:"trigger" db:"trigger"`
	Status  Status  `json:"status" db:"status"`

	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`

	CELCount     int `json:"cel_count" db:"cel_count"`
	CreatedCount int `json:"created_count" db:"created_count"`
	DeletedCount int `json:"deleted_count" db:"deleted_count"`

	// Error is a short human-readable description for internal ops, set
	// only on failed runs.
	Error string `json:"error,omitempty" db:"error"`
}

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusSkipped means another instance held the generation lock.
	StatusSkipped Status = "skipped"
)
