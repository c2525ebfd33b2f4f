package domain

import "time"

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// TrackedJob is a long-running server-side job the client is watching.
// Identity is the job ID; the coordinator keeps at most one TrackedJob
// per ID.
type TrackedJob struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Status       JobStatus `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}
