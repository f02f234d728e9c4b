package wx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metarFromJSON(t *testing.T, raw string) *metarPayload {
	t.Helper()
	var m metarPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return &m
}

func TestApplyMETARFullPayload(t *testing.T) {
	m := metarFromJSON(t, `{
		"rawOb": "KJFK 261751Z 27012KT 10SM FEW250 24/12 A3012",
		"temp": 24.0, "dewp": 12.0, "wdir": 270, "wspd": 12,
		"visib": "10+", "altim": 30.12, "fltcat": "VFR", "obsTime": 1756230660
	}`)

	obs := &Observation{AirportCode: "KJFK"}
	applyMETAR(obs, m)

	assert.InDelta(t, 24.0, obs.TemperatureC, 1e-9)
	assert.InDelta(t, 12.0, obs.DewpointC, 1e-9)
	assert.InDelta(t, 270.0, obs.WindDirDeg, 1e-9)
	assert.InDelta(t, 12.0, obs.WindSpeedKts, 1e-9)
	assert.InDelta(t, 10.0, obs.VisibilitySM, 1e-9)
	assert.InDelta(t, 30.12, obs.PressureInHg, 1e-9)
	assert.Equal(t, "VFR", obs.FlightCategory)
	assert.Equal(t, int64(1756230660), obs.ObservedAt.Unix())

	// Derived units
	assert.InDelta(t, 75.2, obs.TemperatureF, 0.1)
	assert.InDelta(t, 13.8, obs.WindSpeedMPH, 0.1)
	assert.InDelta(t, 16.1, obs.VisibilityKM, 0.1)
}

func TestApplyMETARDefaults(t *testing.T) {
	m := metarFromJSON(t, `{"rawOb": "KXYZ 261751Z"}`)

	obs := &Observation{AirportCode: "KXYZ"}
	applyMETAR(obs, m)

	assert.InDelta(t, 15.0, obs.TemperatureC, 1e-9)
	assert.InDelta(t, 10.0, obs.TemperatureC-obs.DewpointC+5.0, 1e-9)
	assert.InDelta(t, 270.0, obs.WindDirDeg, 1e-9)
	assert.InDelta(t, 5.0, obs.WindSpeedKts, 1e-9)
	assert.InDelta(t, 10.0, obs.VisibilitySM, 1e-9)
	assert.InDelta(t, 30.0, obs.PressureInHg, 1e-9)
	assert.Equal(t, "VFR", obs.FlightCategory)
	assert.False(t, obs.ObservedAt.IsZero())
}

func TestParseVisibility(t *testing.T) {
	cases := []struct {
		payload string
		want    float64
	}{
		{`{"visib": "10+"}`, 10.0},
		{`{"visib": "6SM"}`, 6.0},
		{`{"visib": 2.5}`, 2.5},
		{`{"visib": "0.25"}`, 0.25},
		{`{"visib": null}`, 10.0},
		{`{}`, 10.0},
	}

	for _, tc := range cases {
		m := metarFromJSON(t, tc.payload)
		assert.InDelta(t, tc.want, parseVisibility(m.Visib), 1e-9, "payload %s", tc.payload)
	}
}

func TestNormalizePressure(t *testing.T) {
	// hPa values arrive on some feeds; anything over 400 is converted.
	hpa := metarFromJSON(t, `{"altim": 1013.2}`)
	assert.InDelta(t, 29.92, normalizePressure(hpa.Altim), 0.01)

	inhg := metarFromJSON(t, `{"altim": 29.92}`)
	assert.InDelta(t, 29.92, normalizePressure(inhg.Altim), 1e-9)

	missing := metarFromJSON(t, `{}`)
	assert.InDelta(t, 30.0, normalizePressure(missing.Altim), 1e-9)
}

func TestSummarizeTAF(t *testing.T) {
	assert.Contains(t, summarizeTAF("TAF KJFK 261720Z 2618/2724 27010KT P6SM TSRA"), "Precipitation")
	assert.Contains(t, summarizeTAF("TAF KSFO 261720Z 2618/2724 28008KT 2SM BR"), "visibility")
	assert.Equal(t, "Standard conditions forecast", summarizeTAF("TAF KDEN 261720Z 2618/2724 36005KT P6SM SKC"))
}

func TestApplyPirepsCapped(t *testing.T) {
	payloads := make([]pirepPayload, 9)
	for i := range payloads {
		payloads[i] = pirepPayload{Raw: "UA /OV KJFK", Turbulence: "MOD"}
	}

	obs := &Observation{}
	applyPireps(obs, payloads)

	assert.Len(t, obs.Pireps, maxPireps)
	assert.Equal(t, maxPireps, obs.PirepTurbulenceCount())
	assert.NotEmpty(t, obs.PirepSummary)
}

func TestApplySigmetsFiltersByRelevance(t *testing.T) {
	payloads := []sigmetPayload{
		{Hazard: "CONVECTIVE", Raw: "SIGMET ... KJFK ...", Severity: "SEV"},
		{Hazard: "TURB", Raw: "SIGMET TURBULENCE FL200-350", Severity: "MOD"},
		{Hazard: "VA", Raw: "SIGMET unrelated volcanic ash elsewhere", Severity: "SEV"},
	}

	obs := &Observation{}
	applySigmets(obs, payloads, "KJFK")

	// The volcanic ash record names neither the airport nor a tracked
	// hazard keyword, so it is dropped.
	assert.Len(t, obs.Sigmets, 2)
	assert.NotEmpty(t, obs.SigmetSummary)
}
