package analysis

import (
	"testing"

	telemetry "glucose-sentinel/internal/telemetry/domain"
)

func TestClassifyGlucose(t *testing.T) {
	settings := DefaultSettings()
	cases := []struct {
		name    string
		glucose float64
		want    GlucoseState
	}{
		{"well above high threshold", 250, StateHyperglycemia},
		{"exactly high threshold", 180, StateHyperglycemia},
		{"just below high threshold", 179.99, StateNormal},
		{"mid range", 120, StateNormal},
		{"just above low threshold", 70.01, StateNormal},
		{"exactly low threshold", 70, StateHypoglycemia},
		{"well below low threshold", 45, StateHypoglycemia},
		{"zero", 0, StateHypoglycemia},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyGlucose(tc.glucose, settings); got != tc.want {
				t.Fatalf("glucose %v: expected %s, got %s", tc.glucose, tc.want, got)
			}
		})
	}
}

func TestClassifyGlucoseHyperWinsOnOverlap(t *testing.T) {
	settings := DefaultSettings()
	settings.HyperThreshold = 100
	settings.HypoThreshold = 100
	if got := ClassifyGlucose(100, settings); got != StateHyperglycemia {
		t.Fatalf("expected hyperglycemia on overlapping thresholds, got %s", got)
	}
}

func TestClassifyActivity(t *testing.T) {
	cases := []struct {
		name   string
		hr, ox int
		want   ActivityContext
	}{
		{"resting", 70, 97, ContextResting},
		{"resting boundary hr", 79, 96, ContextResting},
		{"hr at resting limit", 80, 98, ContextNeutral},
		{"oxygen at resting limit", 70, 95, ContextNeutral},
		{"agitated by heart rate", 120, 98, ContextAgitated},
		{"hr at agitated limit", 110, 98, ContextNeutral},
		{"agitated by oxygen", 70, 90, ContextAgitated},
		{"oxygen at agitated limit", 90, 92, ContextNeutral},
		{"neutral", 90, 94, ContextNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sample := telemetry.Sample{HeartRate: tc.hr, Oxygen: tc.ox}
			if got := ClassifyActivity(sample); got != tc.want {
				t.Fatalf("hr=%d ox=%d: expected %s, got %s", tc.hr, tc.ox, tc.want, got)
			}
		})
	}
}

func TestActivityIndependentOfGlucose(t *testing.T) {
	settings := DefaultSettings()
	sample := telemetry.Sample{Glucose: 190, HeartRate: 120, Oxygen: 98}
	if got := ClassifyGlucose(sample.Glucose, settings); got != StateHyperglycemia {
		t.Fatalf("expected hyperglycemia, got %s", got)
	}
	if got := ClassifyActivity(sample); got != ContextAgitated {
		t.Fatalf("expected agitated, got %s", got)
	}
}
