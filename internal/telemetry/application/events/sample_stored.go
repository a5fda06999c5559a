package events

import "time"

// SampleStored is published after a telemetry sample was persisted. It
// triggers the analysis pipeline for the originating device.
type SampleStored struct {
	EventID    string    `json:"event_id"`
	DeviceID   string    `json:"device_id"`
	Timestamp  int64     `json:"timestamp"`
	OccurredAt time.Time `json:"occurred_at"`
}
