package constants

// JobStatus is the lifecycle status of a text-detection job.
type JobStatus string

// Stable values (these exact strings go over the wire).
const (
	JobStatusPending    JobStatus = "PENDING" // reserved; jobs start IN_PROGRESS
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Client-facing status messages returned on poll.
const (
	StatusMessageInProgress = "Job is still in progress"
	StatusMessageSucceeded  = "Job completed successfully"
	StatusMessageFailed     = "Job failed"
)
