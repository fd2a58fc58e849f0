package model

import "time"

type ProcessStatus string

const (
	ProcessStatusProcessing ProcessStatus = "processing"
	ProcessStatusDone       ProcessStatus = "done"
	ProcessStatusError      ProcessStatus = "error"
)

// ProcessState tracks one pipeline run. Created at submission, marked done
// or error at the end; the registry TTL removes it afterwards.
type ProcessState struct {
	ProcessID string        `json:"process_id"`
	Status    ProcessStatus `json:"status"`
	Progress  int           `json:"progress"`
	Message   string        `json:"message,omitempty"`
	StartedAt time.Time     `json:"started_at"`
}
