package analysis

import (
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// GlucoseState classifies the latest reading against the thresholds.
type GlucoseState string

const (
	StateNormal        GlucoseState = "normal"
	StateHyperglycemia GlucoseState = "hyperglycemia"
	StateHypoglycemia  GlucoseState = "hypoglycemia"
)

// Label returns the display form used in alert subjects and bodies.
func (s GlucoseState) Label() string {
	switch s {
	case StateHyperglycemia:
		return "HYPERGLYCEMIA"
	case StateHypoglycemia:
		return "HYPOGLYCEMIA"
	default:
		return "NORMAL"
	}
}

// ActivityContext is a coarse resting/agitated classification from heart rate
// and oxygen saturation, independent of the glucose state.
type ActivityContext string

const (
	ContextResting  ActivityContext = "resting"
	ContextAgitated ActivityContext = "agitated"
	ContextNeutral  ActivityContext = "neutral"
)

// Activity context thresholds, from the latest sample only.
const (
	restingMaxHeartRate  = 80
	restingMinOxygen     = 95
	agitatedMinHeartRate = 110
	agitatedMaxOxygen    = 92
)

// ClassifyGlucose maps a reading to exactly one state. Both thresholds are
// inclusive; the high threshold is checked first, so a degenerate
// configuration where they overlap resolves to hyperglycemia.
func ClassifyGlucose(glucose float64, settings Settings) GlucoseState {
	if glucose >= settings.HyperThreshold {
		return StateHyperglycemia
	}
	if glucose <= settings.HypoThreshold {
		return StateHypoglycemia
	}
	return StateNormal
}

// ClassifyActivity derives the activity context from the latest sample's
// vitals, not the window average.
func ClassifyActivity(sample telemetry.Sample) ActivityContext {
	if sample.HeartRate < restingMaxHeartRate && sample.Oxygen > restingMinOxygen {
		return ContextResting
	}
	if sample.HeartRate > agitatedMinHeartRate || sample.Oxygen < agitatedMaxOxygen {
		return ContextAgitated
	}
	return ContextNeutral
}
