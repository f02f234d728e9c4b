package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/internal/wx"
)

func sampleObservation() *wx.Observation {
	return &wx.Observation{
		AirportCode:    "KJFK",
		TemperatureC:   24,
		WindSpeedKts:   12,
		WindDirDeg:     270,
		PressureInHg:   30.12,
		VisibilitySM:   10,
		FlightCategory: "VFR",
		Pireps: []wx.PirepReport{
			{Turbulence: "MOD"},
			{Icing: "LGT"},
		},
		Sigmets: []wx.SigmetWarning{
			{Hazard: "CONVECTIVE"},
		},
	}
}

func TestBuildFeaturesLayout(t *testing.T) {
	rec := &airports.Record{ICAO: "KJFK", Latitude: 40.6398, Longitude: -73.7789, ElevationFt: 13}
	now := time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC)

	f := BuildFeatures(sampleObservation(), rec, now)

	assert.Len(t, f, FeatureCount)
	assert.InDelta(t, 24.0, f[featTemperature], 1e-9)
	assert.InDelta(t, 12.0, f[featWindSpeed], 1e-9)
	assert.InDelta(t, 270.0, f[featWindDirection], 1e-9)
	assert.InDelta(t, 30.12, f[featPressure], 1e-9)
	assert.InDelta(t, 10.0, f[featVisibility], 1e-9)
	assert.InDelta(t, 40.6398, f[featLatitude], 1e-9)
	assert.InDelta(t, -73.7789, f[featLongitude], 1e-9)
	assert.InDelta(t, 0.013, f[featElevationKft], 1e-9)
	assert.InDelta(t, 14.0, f[featHourOfDay], 1e-9)
	assert.InDelta(t, 8.0, f[featMonth], 1e-9)
	assert.InDelta(t, 26.0, f[featDayOfMonth], 1e-9)

	// No historical pattern attached: documented defaults.
	assert.InDelta(t, history.DefaultAvgTemperatureC, f[featHistAvgTemp], 1e-9)
	assert.InDelta(t, history.DefaultAvgWindSpeedKts, f[featHistAvgWind], 1e-9)

	assert.InDelta(t, 2.0, f[featPirepCount], 1e-9)
	assert.InDelta(t, 1.0, f[featPirepTurbulence], 1e-9)
	assert.InDelta(t, 1.0, f[featPirepIcing], 1e-9)
	assert.InDelta(t, 1.0, f[featSigmetCount], 1e-9)
	assert.InDelta(t, 1.0, f[featSigmetConvective], 1e-9)
	assert.InDelta(t, 0.0, f[featSigmetTurbulence], 1e-9)
}

func TestBuildFeaturesHistoricalPattern(t *testing.T) {
	obs := sampleObservation()
	obs.Historical = &history.Pattern{AvgTemperatureC: 18.5, AvgWindSpeedKts: 7.2}
	rec := &airports.Record{ICAO: "KJFK"}

	f := BuildFeatures(obs, rec, time.Now())

	assert.InDelta(t, 18.5, f[featHistAvgTemp], 1e-9)
	assert.InDelta(t, 7.2, f[featHistAvgWind], 1e-9)
}

func TestAdvanceHour(t *testing.T) {
	rec := &airports.Record{ICAO: "KJFK"}
	now := time.Date(2026, time.August, 26, 22, 0, 0, 0, time.UTC)
	base := BuildFeatures(sampleObservation(), rec, now)

	plus3 := AdvanceHour(base, 3)
	assert.InDelta(t, 1.0, plus3[HourFeatureIndex], 1e-9, "22 + 3 wraps to 1")

	plus0 := AdvanceHour(base, 0)
	assert.InDelta(t, 22.0, plus0[HourFeatureIndex], 1e-9)

	// The source vector must not be mutated.
	assert.InDelta(t, 22.0, base[HourFeatureIndex], 1e-9)

	// Only the hour entry changes.
	for i := range base {
		if i == HourFeatureIndex {
			continue
		}
		assert.InDelta(t, base[i], plus3[i], 1e-9, "feature %d must be untouched", i)
	}
}
