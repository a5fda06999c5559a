package telemetry

import "sort"

// DefaultWindowSize bounds the recent history considered per invocation.
const DefaultWindowSize = 10

// Window is the bounded, ordered recent history for one device, ascending by
// timestamp. It is built fresh per invocation and discarded afterwards.
type Window struct {
	samples []Sample
}

// NewWindow sorts samples ascending by timestamp and drops duplicate
// timestamps. The store returns reverse-chronological rows; duplicates can
// appear when the same sample triggers the pipeline twice, and keeping them
// would skew the slope.
func NewWindow(samples []Sample) Window {
	sorted := append([]Sample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	deduped := sorted[:0]
	for i, sample := range sorted {
		if i > 0 && sample.Timestamp == sorted[i-1].Timestamp {
			continue
		}
		deduped = append(deduped, sample)
	}
	return Window{samples: deduped}
}

// Len returns the number of samples in the window.
func (w Window) Len() int { return len(w.samples) }

// Empty reports whether the device has no history.
func (w Window) Empty() bool { return len(w.samples) == 0 }

// First returns the oldest sample. Callers must check Empty first.
func (w Window) First() Sample { return w.samples[0] }

// Latest returns the newest sample. Callers must check Empty first.
func (w Window) Latest() Sample { return w.samples[len(w.samples)-1] }

// Samples returns the ascending sample sequence.
func (w Window) Samples() []Sample { return w.samples }

// Glucoses returns the glucose series in window order.
func (w Window) Glucoses() []float64 {
	values := make([]float64, len(w.samples))
	for i, sample := range w.samples {
		values[i] = sample.Glucose
	}
	return values
}

// InstabilityPeaks returns the per-sample excursion series in window order.
func (w Window) InstabilityPeaks() []float64 {
	values := make([]float64, len(w.samples))
	for i, sample := range w.samples {
		values[i] = sample.InstabilityPeak()
	}
	return values
}

// Timestamps returns the raw epoch series in window order.
func (w Window) Timestamps() []int64 {
	values := make([]int64, len(w.samples))
	for i, sample := range w.samples {
		values[i] = sample.Timestamp
	}
	return values
}
