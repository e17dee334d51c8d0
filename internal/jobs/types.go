package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether a job in this status will not run again
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type EnqueueRequest struct {
	Source string // "watch", "manual", ...
	Input  string
	Output string
}

// FileJob translates one subtitle file. Jobs are keyed by their input path:
// a file already pending or running is not queued twice.
type FileJob struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
