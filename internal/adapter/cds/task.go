package cds

import "fmt"

// Task states reported by the CDS.
const (
	stateQueued    = "queued"
	stateRunning   = "running"
	stateCompleted = "completed"
	stateFailed    = "failed"
)

// CDS API response types.

type taskReply struct {
	State         string     `json:"state"`
	RequestID     string     `json:"request_id"`
	Location      string     `json:"location,omitempty"`
	ContentLength int64      `json:"content_length,omitempty"`
	ContentType   string     `json:"content_type,omitempty"`
	Error         *taskError `json:"error,omitempty"`
}

type taskError struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func (r taskReply) failure() error {
	if r.Error == nil {
		return fmt.Errorf("%w: request %s", ErrRequestFailed, r.RequestID)
	}
	return fmt.Errorf("%w: %s: %s", ErrRequestFailed, r.Error.Message, r.Error.Reason)
}
