package analysis

import (
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// Advisory lines. Insertion order of the rule table below is an observable
// contract: downstream channels render the list as-is.
const (
	adviceHyperResting = "High glucose while at rest: consider a light walk to help bring the level down."
	adviceHyperActive  = "High glucose during activity: stay hydrated and watch whether the trend keeps rising."
	adviceHydrate      = "Drink plenty of water."

	adviceHypoCarbs    = "Take 15g of fast-acting carbohydrates (juice or sugar)."
	adviceHypoAgitated = "DANGER: you are agitated. Stop all physical activity immediately."
	adviceHypoRest     = "Stay at rest until your levels normalize."

	adviceSensorUnstable = "Warning: unstable sensor readings detected."
	adviceTachycardia    = "A tachycardia event was detected within the last 15 minutes."
	adviceBradycardia    = "A bradycardia event was detected within the last 15 minutes."
	adviceHypoxia        = "A hypoxia event was detected within the last 15 minutes."
)

// Recommend evaluates the rule table in fixed order and returns the advisory
// lines for an alert. It is only meaningful once an alert exists: a normal
// state yields nothing, event flags included, because flags are advisory
// context for an alert rather than alerts of their own.
func Recommend(state GlucoseState, activity ActivityContext, latest telemetry.Sample) []string {
	if state == StateNormal {
		return nil
	}

	var recommendations []string
	switch state {
	case StateHyperglycemia:
		if activity == ContextResting {
			recommendations = append(recommendations, adviceHyperResting)
		} else {
			recommendations = append(recommendations, adviceHyperActive)
		}
		recommendations = append(recommendations, adviceHydrate)
	case StateHypoglycemia:
		recommendations = append(recommendations, adviceHypoCarbs)
		if activity == ContextAgitated {
			recommendations = append(recommendations, adviceHypoAgitated)
		} else {
			recommendations = append(recommendations, adviceHypoRest)
		}
	}

	if latest.SensorUnstable {
		recommendations = append(recommendations, adviceSensorUnstable)
	}
	if latest.Tachycardia {
		recommendations = append(recommendations, adviceTachycardia)
	}
	if latest.Bradycardia {
		recommendations = append(recommendations, adviceBradycardia)
	}
	if latest.Hypoxia {
		recommendations = append(recommendations, adviceHypoxia)
	}
	return recommendations
}
