package models

// JobStatus is the lifecycle state of an asynchronous inference job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further polling can change the status.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// AsyncJob is the observed state of a submitted job.
type AsyncJob struct {
	ID     string
	Status JobStatus
	Output []string
	Error  string
}

// GenerationRequest is the input of a text-generation job.
type GenerationRequest struct {
	Prompt            string
	MaxLength         int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
}
