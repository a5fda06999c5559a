package analysis

import (
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// PredictionHorizonMinutes is the horizon the extrapolation projects to.
const PredictionHorizonMinutes = 15

// Predict extrapolates the glucose concentration expected after the
// prediction horizon from the window's first and last samples. The raw slope
// is clamped to a physiologically plausible rate of change so a noisy or
// short window cannot produce an absurd projection; this clamp is the main
// numerical-stability guard of the pipeline. A window of length <= 1
// degenerates to zero slope, so the prediction equals the latest reading.
func Predict(window telemetry.Window, settings Settings) float64 {
	latest := window.Latest()
	slope := 0.0
	if window.Len() > 1 {
		slope = (latest.Glucose - window.First().Glucose) / float64(window.Len())
	}
	delta := clamp(slope, -settings.MaxDelta(), settings.MaxDelta())
	return latest.Glucose + delta
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
