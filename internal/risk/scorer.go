// Package risk turns an airport observation plus optional model output
// into a single 0-100 composite score with a per-factor breakdown.
package risk

import (
	"math"

	"github.com/flightwx/skybrief/internal/predict"
	"github.com/flightwx/skybrief/internal/wx"
)

// Additive factor weights. Every assessment starts from the base and
// accumulates penalties; the final score is clamped to [0, 100].
const (
	baseRisk = 20.0

	windStrongKts   = 25.0
	windElevatedKts = 15.0
	windStrongRisk  = 30.0
	windElevated    = 15.0

	visLowSM      = 3.0
	visReducedSM  = 5.0
	visLowRisk    = 25.0
	visReduced    = 10.0

	categoryLIFR = 25.0
	categoryIFR  = 15.0
	categoryMVFR = 8.0

	pressureLowInHg  = 29.0
	pressureHighInHg = 31.0
	pressureRisk     = 10.0

	mlRiskCap = 20.0

	// Historical anomaly: current temperature this far from the
	// airport's seasonal average adds a small penalty.
	HistoricalDeltaC = 20.0
	HistoricalRisk   = 5.0
)

// Risk bands.
const (
	BandLow      = "LOW_RISK"
	BandModerate = "MODERATE_RISK"
	BandHigh     = "HIGH_RISK"
	BandExtreme  = "EXTREME_RISK"
)

// Assessment is the scored result for one airport.
type Assessment struct {
	Score          float64            `json:"score"`
	Band           string             `json:"band"`
	Recommendation string             `json:"recommendation"`
	PilotAction    string             `json:"pilot_action"`
	Breakdown      map[string]float64 `json:"breakdown"`
}

// Score computes the composite risk for an observation. predictions
// may be nil when no models contributed.
func Score(obs *wx.Observation, predictions *predict.Set) Assessment {
	breakdown := map[string]float64{
		"base_risk":       baseRisk,
		"wind_risk":       windRisk(obs.WindSpeedKts),
		"visibility_risk": visibilityRisk(obs.VisibilitySM),
		"weather_risk":    categoryRisk(obs.FlightCategory),
		"pressure_risk":   pressureFactor(obs.PressureInHg),
		"ml_risk":         mlRisk(predictions),
		"historical_risk": historicalRisk(obs),
	}

	total := 0.0
	for _, v := range breakdown {
		total += v
	}
	score := clamp(total, 0, 100)

	band := bandFor(score)
	return Assessment{
		Score:          math.Round(score*10) / 10,
		Band:           band,
		Recommendation: recommendationFor(band),
		PilotAction:    pilotActionFor(band),
		Breakdown:      breakdown,
	}
}

func windRisk(kts float64) float64 {
	switch {
	case kts > windStrongKts:
		return windStrongRisk
	case kts > windElevatedKts:
		return windElevated
	default:
		return 0
	}
}

func visibilityRisk(sm float64) float64 {
	switch {
	case sm < visLowSM:
		return visLowRisk
	case sm < visReducedSM:
		return visReduced
	default:
		return 0
	}
}

func categoryRisk(category string) float64 {
	switch category {
	case "LIFR":
		return categoryLIFR
	case "IFR":
		return categoryIFR
	case "MVFR":
		return categoryMVFR
	default:
		return 0
	}
}

func pressureFactor(inHg float64) float64 {
	if inHg < pressureLowInHg || inHg > pressureHighInHg {
		return pressureRisk
	}
	return 0
}

// mlRisk converts turbulence and icing model scores into a capped
// contribution. Missing scores contribute nothing.
func mlRisk(p *predict.Set) float64 {
	if p == nil {
		return 0
	}
	risk := 0.0
	if p.TurbulenceScore != nil {
		risk += *p.TurbulenceScore * 10
	}
	if p.IcingScore != nil {
		risk += *p.IcingScore * 10
	}
	return math.Min(risk, mlRiskCap)
}

func historicalRisk(obs *wx.Observation) float64 {
	if obs.Historical == nil {
		return 0
	}
	if math.Abs(obs.TemperatureC-obs.Historical.AvgTemperatureC) > HistoricalDeltaC {
		return HistoricalRisk
	}
	return 0
}

func bandFor(score float64) string {
	switch {
	case score <= 30:
		return BandLow
	case score <= 50:
		return BandModerate
	case score <= 70:
		return BandHigh
	default:
		return BandExtreme
	}
}

func recommendationFor(band string) string {
	switch band {
	case BandLow:
		return "CLEARED FOR TAKEOFF"
	case BandModerate:
		return "CAUTION ADVISED"
	case BandHigh:
		return "DELAY RECOMMENDED"
	default:
		return "DO NOT FLY"
	}
}

func pilotActionFor(band string) string {
	switch band {
	case BandLow:
		return "Normal operations. Standard pre-flight checks apply."
	case BandModerate:
		return "Review conditions carefully. Brief passengers on possible turbulence."
	case BandHigh:
		return "Consider delaying departure until conditions improve. File alternate airports."
	default:
		return "Conditions exceed safe operating limits. Do not depart."
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
