package ports

// JobTracker is the inbound contract for registering long-running jobs
// returned by the backend after a submission.
type JobTracker interface {
	Register(jobID, label string)
	Unregister(jobID string)
	Tracked() int
}
