package predict

import (
	"time"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/internal/wx"
)

// Feature vector layout. The order is fixed: models are trained
// against these indices.
const (
	featTemperature = iota
	featWindSpeed
	featWindDirection
	featPressure
	featVisibility
	featLatitude
	featLongitude
	featElevationKft
	featHourOfDay
	featMonth
	featWeekday
	featDayOfMonth
	featHistAvgTemp
	featHistAvgWind
	featPirepCount
	featPirepTurbulence
	featPirepIcing
	featSigmetCount
	featSigmetConvective
	featSigmetTurbulence

	// FeatureCount is the full vector length.
	FeatureCount
)

// MinFeatures is the smallest vector the bridge will hand to a model.
const MinFeatures = 15

// HourFeatureIndex is the position of the hour-of-day feature, the one
// advanced (mod 24) when projecting conditions to a future flight hour.
const HourFeatureIndex = featHourOfDay

// BuildFeatures assembles the fixed-order numeric feature vector from
// the observation, the airport position, and the clock.
func BuildFeatures(obs *wx.Observation, rec *airports.Record, now time.Time) []float64 {
	features := make([]float64, FeatureCount)

	features[featTemperature] = obs.TemperatureC
	features[featWindSpeed] = obs.WindSpeedKts
	features[featWindDirection] = obs.WindDirDeg
	features[featPressure] = obs.PressureInHg
	features[featVisibility] = obs.VisibilitySM

	features[featLatitude] = rec.Latitude
	features[featLongitude] = rec.Longitude
	features[featElevationKft] = rec.ElevationFt / 1000.0

	features[featHourOfDay] = float64(now.Hour())
	features[featMonth] = float64(now.Month())
	features[featWeekday] = float64(now.Weekday())
	features[featDayOfMonth] = float64(now.Day())

	if obs.Historical != nil {
		features[featHistAvgTemp] = obs.Historical.AvgTemperatureC
		features[featHistAvgWind] = obs.Historical.AvgWindSpeedKts
	} else {
		features[featHistAvgTemp] = history.DefaultAvgTemperatureC
		features[featHistAvgWind] = history.DefaultAvgWindSpeedKts
	}

	features[featPirepCount] = float64(len(obs.Pireps))
	features[featPirepTurbulence] = float64(obs.PirepTurbulenceCount())
	features[featPirepIcing] = float64(obs.PirepIcingCount())

	features[featSigmetCount] = float64(len(obs.Sigmets))
	features[featSigmetConvective] = float64(obs.SigmetHazardCount("CONVECTIVE"))
	features[featSigmetTurbulence] = float64(obs.SigmetHazardCount("TURBULENCE"))

	return features
}

// AdvanceHour returns a copy of the feature vector with the
// hour-of-day feature moved forward by the given number of hours,
// wrapped mod 24.
func AdvanceHour(features []float64, hours int) []float64 {
	advanced := make([]float64, len(features))
	copy(advanced, features)
	if HourFeatureIndex < len(advanced) {
		h := int(advanced[HourFeatureIndex]) + hours
		advanced[HourFeatureIndex] = float64(((h % 24) + 24) % 24)
	}
	return advanced
}
