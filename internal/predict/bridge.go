package predict

import (
	"fmt"
	"math"
	"time"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/wx"
)

// Risk tiers produced from raw model scores.
const (
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// weatherClasses is the fixed 5-category table the raw classifier
// output is mapped through. Modulo indexing guarantees a valid label
// for any raw class id.
var weatherClasses = []string{"CLEAR", "PARTLY_CLOUDY", "OVERCAST", "PRECIPITATION", "SEVERE"}

// Set holds the optional model outputs for one airport. Absent fields
// mean the corresponding model was unavailable or failed; partial
// results are not an error.
type Set struct {
	PredictedTemperature  *float64 `json:"predicted_temperature,omitempty"`
	TemperatureConfidence string   `json:"temperature_confidence,omitempty"`

	PredictedWindSpeed     *float64 `json:"predicted_wind_speed,omitempty"`
	WindDataSources        string   `json:"wind_data_sources,omitempty"`
	PredictedWindDirection *float64 `json:"predicted_wind_direction,omitempty"`

	PredictedPressure *float64 `json:"predicted_pressure,omitempty"`

	TurbulenceScore   *float64 `json:"turbulence_score,omitempty"`
	TurbulenceRisk    string   `json:"turbulence_risk,omitempty"`
	TurbulenceReports string   `json:"turbulence_reports,omitempty"`

	IcingScore   *float64 `json:"icing_score,omitempty"`
	IcingRisk    string   `json:"icing_risk,omitempty"`
	IcingReports string   `json:"icing_reports,omitempty"`

	PredictedWeather string `json:"predicted_weather,omitempty"`
	WeatherAlerts    string `json:"weather_alerts,omitempty"`

	OverallFlightSafety string `json:"overall_flight_safety,omitempty"`
	DataSourcesCount    int    `json:"data_sources_count"`
}

// Bridge runs the model registry against assembled features.
type Bridge struct {
	registry *Registry
}

// NewBridge creates a feature-and-prediction bridge over a registry.
func NewBridge(registry *Registry) *Bridge {
	return &Bridge{registry: registry}
}

// Predict builds the feature vector for the observation and runs every
// available model. Returns nil when no model produced any output.
func (b *Bridge) Predict(obs *wx.Observation, rec *airports.Record, now time.Time) *Set {
	features := BuildFeatures(obs, rec, now)
	return b.PredictFeatures(obs, features)
}

// PredictFeatures runs the registry against an already-built feature
// vector. Used for hourly in-flight forecasts where the hour feature
// has been advanced.
func (b *Bridge) PredictFeatures(obs *wx.Observation, features []float64) *Set {
	if b.registry.Len() == 0 || len(features) < MinFeatures {
		return nil
	}

	set := &Set{}
	produced := false

	if v, ok := b.registry.Predict(ModelTemperature, features); ok {
		set.PredictedTemperature = ptr(round1(v))
		set.TemperatureConfidence = "HIGH (Geo + Historical + Real-time)"
		produced = true
	}

	if v, ok := b.registry.Predict(ModelWindSpeed, features); ok {
		set.PredictedWindSpeed = ptr(round1(v))
		set.WindDataSources = fmt.Sprintf("METAR + %d PIREP reports", len(obs.Pireps))
		produced = true
	}

	if v, ok := b.registry.Predict(ModelWindDirection, features); ok {
		set.PredictedWindDirection = ptr(math.Round(v))
		produced = true
	}

	if v, ok := b.registry.Predict(ModelPressure, features); ok {
		set.PredictedPressure = ptr(round2(v))
		produced = true
	}

	if v, ok := b.registry.Predict(ModelTurbulence, features); ok {
		set.TurbulenceScore = ptr(round2(v))
		set.TurbulenceRisk = classifyScore(v)
		if n := obs.PirepTurbulenceCount(); n > 0 {
			set.TurbulenceReports = fmt.Sprintf("%d pilot reports confirm turbulence", n)
		}
		produced = true
	}

	if v, ok := b.registry.Predict(ModelIcing, features); ok {
		set.IcingScore = ptr(round2(v))
		set.IcingRisk = classifyScore(v)
		if n := obs.PirepIcingCount(); n > 0 {
			set.IcingReports = fmt.Sprintf("%d pilot reports confirm icing conditions", n)
		}
		produced = true
	}

	if v, ok := b.registry.Predict(ModelWeatherClass, features); ok {
		idx := ((int(v) % len(weatherClasses)) + len(weatherClasses)) % len(weatherClasses)
		set.PredictedWeather = weatherClasses[idx]
		if n := len(obs.Sigmets); n > 0 {
			set.WeatherAlerts = fmt.Sprintf("%d SIGMET warnings active in area", n)
		}
		produced = true
	}

	if !produced {
		return nil
	}

	set.OverallFlightSafety = overallSafety(set.TurbulenceRisk, set.IcingRisk)
	set.DataSourcesCount = len(obs.Sources)
	return set
}

// classifyScore maps a raw 0-1 hazard score to a tier.
func classifyScore(score float64) string {
	switch {
	case score > 0.6:
		return RiskHigh
	case score > 0.3:
		return RiskModerate
	default:
		return RiskLow
	}
}

// overallSafety is the worse of the turbulence and icing tiers.
func overallSafety(turb, ice string) string {
	if turb == RiskHigh || ice == RiskHigh {
		return RiskHigh
	}
	if turb == RiskModerate || ice == RiskModerate {
		return RiskModerate
	}
	return RiskLow
}

func ptr(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
