package telemetry

import "context"

// SampleRepository persists incoming samples.
type SampleRepository interface {
	Insert(ctx context.Context, sample Sample) error
}

// HistoryStore reads the bounded recent history for a device. Implementations
// return the most recent samples in any order; callers normalize through
// NewWindow. An empty slice means the device has no history.
type HistoryStore interface {
	RecentWindow(ctx context.Context, deviceID string, limit int) ([]Sample, error)
}
