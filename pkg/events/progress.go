package events

import (
	"time"

	"ai-slidegen-be/pkg/report"
)

// ProgressTopic is the in-process pubsub topic carrying pipeline progress.
const ProgressTopic = "slides.progress"

type ProgressType string

const (
	ProgressTypeProgress ProgressType = "progress"
	ProgressTypeComplete ProgressType = "complete"
	ProgressTypeError    ProgressType = "error"
)

// ProgressEvent is one step of a pipeline run as seen by the transport
// layer. A run emits progress events with non-decreasing Progress, closed by
// exactly one complete or error event.
type ProgressEvent struct {
	ProcessID  string         `json:"process_id"`
	Type       ProgressType   `json:"type"`
	Progress   int            `json:"progress"`
	Message    string         `json:"message"`
	Stage      string         `json:"stage,omitempty"`
	Slides     []report.Slide `json:"slides,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (e ProgressEvent) EventType() string {
	switch e.Type {
	case ProgressTypeComplete:
		return "SLIDES_COMPLETE"
	case ProgressTypeError:
		return "SLIDES_ERROR"
	default:
		return "SLIDES_PROGRESS"
	}
}

func (e ProgressEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"process_id": e.ProcessID,
		"type":       string(e.Type),
		"progress":   e.Progress,
		"message":    e.Message,
		"stage":      e.Stage,
	}
}

func (e ProgressEvent) Timestamp() time.Time {
	return e.OccurredAt
}
