package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Risk labels produced by the risk model.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// RiskScenario is the set of conditions a user submits for a risk assessment.
type RiskScenario struct {
	WeatherCondition   string `json:"weather_condition"`
	LightingCondition  string `json:"lighting_condition"`
	RoadwaySurfaceCond string `json:"roadway_surface_cond"`
	PostedSpeedLimit   int    `json:"posted_speed_limit"`
	DamageValue        int    `json:"damage_value"`
	NumUnits           int    `json:"num_units"`
	CrashHour          int    `json:"crash_hour"`
	FirstCrashType     string `json:"first_crash_type"`
}

// Validate checks the numeric ranges offered by the dashboard sliders.
func (s RiskScenario) Validate() error {
	switch {
	case s.PostedSpeedLimit < 0 || s.PostedSpeedLimit > 100:
		return fmt.Errorf("posted_speed_limit out of range: %d", s.PostedSpeedLimit)
	case s.DamageValue < 0:
		return fmt.Errorf("damage_value must be non-negative: %d", s.DamageValue)
	case s.NumUnits < 1:
		return fmt.Errorf("num_units must be at least 1: %d", s.NumUnits)
	case s.CrashHour < 0 || s.CrashHour > 23:
		return fmt.Errorf("crash_hour out of range: %d", s.CrashHour)
	}
	return nil
}

// ModelInputs renders the scenario as risk model inputs.
func (s RiskScenario) ModelInputs() map[string]string {
	return map[string]string{
		ColPostedSpeedLimit: fmt.Sprint(s.PostedSpeedLimit),
		ColWeather:          s.WeatherCondition,
		ColLighting:         s.LightingCondition,
		ColSurface:          s.RoadwaySurfaceCond,
		ColDamageValue:      fmt.Sprint(s.DamageValue),
		ColNumUnits:         fmt.Sprint(s.NumUnits),
		ColCrashHour:        fmt.Sprint(s.CrashHour),
		ColFirstCrashType:   s.FirstCrashType,
	}
}

// RiskMessage describes a predicted risk label.
func RiskMessage(label string) string {
	switch label {
	case RiskHigh:
		return "High risk: a severe crash with injuries or major damage is likely. Immediate response recommended."
	case RiskMedium:
		return "Medium risk: injury or moderate damage is possible. Exercise caution."
	default:
		return "Low risk: minor crash scenario. Risk level is low, but stay alert."
	}
}

// lateNightHours are the hours flagged for extra monitoring (11PM-3AM).
var lateNightHours = map[int]bool{23: true, 0: true, 1: true, 2: true, 3: true}

// PolicySuggestions returns rule-based recommendations for a scenario.
// An empty result means no action is needed.
func PolicySuggestions(s RiskScenario) []string {
	out := make([]string, 0)

	switch {
	case s.PostedSpeedLimit >= 45:
		out = append(out, fmt.Sprintf("Consider reducing the speed limit from %d mph to around %d mph in this area.",
			s.PostedSpeedLimit, s.PostedSpeedLimit-10))
	case s.PostedSpeedLimit < 25:
		out = append(out, "Speed limit appears to be relatively safe based on model patterns.")
	}

	lighting := strings.ToUpper(s.LightingCondition)
	if strings.Contains(lighting, "DARK") || strings.Contains(lighting, "NO LIGHTING") {
		out = append(out, "Improve street lighting in this location to reduce the chance of severe crashes.")
	}

	if s.DamageValue >= 2000 {
		out = append(out, "Encourage safer driving behaviors or install traffic calming measures to reduce damage severity.")
	}

	if lateNightHours[s.CrashHour] {
		out = append(out, "Increased monitoring recommended during late night hours (11PM-3AM) due to heightened risk.")
	}

	if strings.Contains(strings.ToUpper(s.FirstCrashType), "REAR") {
		out = append(out, "Consider campaigns or signage against tailgating in this zone; rear-end crashes are frequent.")
	}

	return out
}

// SafetyTips are general driving tips shown with an assessment.
var SafetyTips = []string{
	"Keep a safe distance from the vehicle in front of you.",
	"Slow down in poor weather or lighting conditions.",
	"Avoid distractions like phones while driving.",
	"Always wear your seatbelt.",
	"Adjust speed when approaching intersections.",
	"Be extra alert during night driving hours.",
}

// PickSafetyTip returns a random tip. A nil source uses the global generator.
func PickSafetyTip(r *rand.Rand) string {
	if r == nil {
		return SafetyTips[rand.IntN(len(SafetyTips))]
	}
	return SafetyTips[r.IntN(len(SafetyTips))]
}
