package wx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightwx/skybrief/internal/airports"
)

func TestFallbackTemperatureRegions(t *testing.T) {
	cases := []struct {
		code string
		rec  airports.Record
		want float64
	}{
		// Delhi region: flat 26 with elevation lapse only.
		{"VIDP", airports.Record{Latitude: 28.57, ElevationFt: 777}, 26 - 0.777*2},
		// UK region: 12 anchored at lat 53, no lapse.
		{"EGLL", airports.Record{Latitude: 51.47, ElevationFt: 83}, 12 - (53-51.47)*0.4},
		// Default baseline for US codes.
		{"KDEN", airports.Record{Latitude: 39.86, ElevationFt: 5431}, 25 - (39.86-30)*0.5 - 5.431*2},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			got := fallbackTemperature(tc.code, &tc.rec)
			assert.InDelta(t, tc.want, got, 0.01)
		})
	}
}

func TestSynthesizeObservation(t *testing.T) {
	rec := &airports.Record{ICAO: "KDEN", Latitude: 39.86, ElevationFt: 5431}
	obs := &Observation{AirportCode: "KDEN"}

	synthesizeObservation(obs, rec)

	assert.Contains(t, obs.RawMETAR, "FALLBACK DATA")
	assert.Contains(t, obs.RawMETAR, "KDEN")
	assert.InDelta(t, 270.0, obs.WindDirDeg, 1e-9)
	assert.InDelta(t, 8.0, obs.WindSpeedKts, 1e-9)
	assert.InDelta(t, 10.0, obs.VisibilitySM, 1e-9)
	assert.Equal(t, "VFR", obs.FlightCategory)
	assert.InDelta(t, obs.TemperatureC-8, obs.DewpointC, 0.1)

	// Elevation-adjusted pressure, both units.
	assert.InDelta(t, 30.0-5.431*0.1, obs.PressureInHg, 0.01)
	assert.InDelta(t, 1013-543.1, obs.PressureMb, 0.1)
	assert.False(t, obs.ObservedAt.IsZero())
}

func TestSynthesizeForecast(t *testing.T) {
	obs := &Observation{AirportCode: "EGLL"}
	synthesizeForecast(obs)

	assert.NotNil(t, obs.Forecast)
	assert.Contains(t, obs.Forecast.RawTAF, "FALLBACK TAF")
	assert.Contains(t, obs.Forecast.Summary, "VFR")
	assert.NotEmpty(t, obs.Forecast.ValidTo)
}
