package wx

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a live METAR field is missing or non-numeric.
const (
	defaultTemperatureC = 15.0
	defaultWindSpeedKts = 5.0
	defaultWindDirDeg   = 270.0
	defaultPressureInHg = 30.0
	defaultVisibilitySM = 10.0
	defaultFlightCat    = "VFR"
)

// applyMETAR populates the observation's current-conditions fields
// from a live METAR payload, substituting per-field defaults for
// anything missing or unparseable.
func applyMETAR(obs *Observation, m *metarPayload) {
	obs.RawMETAR = m.Raw
	if obs.RawMETAR == "" {
		obs.RawMETAR = "METAR DATA UNAVAILABLE"
	}

	temp, ok := m.Temp.Float64()
	if !ok {
		temp = defaultTemperatureC
	}
	obs.TemperatureC = temp

	if dewp, ok := m.Dewp.Float64(); ok {
		obs.DewpointC = dewp
	} else {
		obs.DewpointC = temp - 5
	}

	if dir, ok := m.WindDir.Float64(); ok {
		obs.WindDirDeg = dir
	} else {
		// "VRB" or absent
		obs.WindDirDeg = defaultWindDirDeg
	}

	if spd, ok := m.WindSpeed.Float64(); ok {
		obs.WindSpeedKts = spd
	} else {
		obs.WindSpeedKts = defaultWindSpeedKts
	}

	obs.VisibilitySM = parseVisibility(m.Visib)
	obs.PressureInHg = normalizePressure(m.Altim)

	obs.FlightCategory = m.FltCat
	if obs.FlightCategory == "" {
		obs.FlightCategory = defaultFlightCat
	}

	if ts, ok := m.ObsTime.Float64(); ok {
		obs.ObservedAt = time.Unix(int64(ts), 0).UTC()
	} else if t, err := time.Parse(time.RFC3339, m.ObsTime.String()); err == nil {
		obs.ObservedAt = t
	} else {
		obs.ObservedAt = time.Now().UTC()
	}

	deriveUnits(obs)
}

// parseVisibility tolerates the formats the API actually emits:
// "10+", "6SM", bare numerics. Unparseable values fall back to the
// 10-statute-mile default.
func parseVisibility(f flexField) float64 {
	if f.IsEmpty() {
		return defaultVisibilitySM
	}
	if v, ok := f.Float64(); ok {
		return v
	}

	s := strings.ToUpper(strings.TrimSpace(f.String()))
	s = strings.ReplaceAll(s, "+", "")
	s = strings.TrimSuffix(s, "SM")
	s = strings.TrimSpace(s)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return defaultVisibilitySM
}

// normalizePressure returns the altimeter setting in inches of
// mercury. The API reports hectopascals (~1013); anything over 400 is
// taken as hPa and converted (29.92 inHg == 1013.2 hPa).
func normalizePressure(f flexField) float64 {
	v, ok := f.Float64()
	if !ok {
		return defaultPressureInHg
	}
	if v > 400 {
		return 0.02953 * v
	}
	return v
}

// deriveUnits computes the secondary-unit fields from the resolved
// primary values.
func deriveUnits(obs *Observation) {
	obs.TemperatureF = round1(obs.TemperatureC*9/5 + 32)
	obs.WindSpeedMPH = round1(obs.WindSpeedKts * 1.151)
	obs.VisibilityKM = round1(obs.VisibilitySM * 1.609)
	obs.PressureMb = round1(obs.PressureInHg * 33.863)
}

// applyTAF attaches the terminal forecast.
func applyTAF(obs *Observation, t *tafPayload) {
	obs.Forecast = &Forecast{
		RawTAF:    t.Raw,
		IssuedAt:  t.IssueTime,
		ValidFrom: t.ValidFrom,
		ValidTo:   t.ValidTo,
		Summary:   summarizeTAF(t.Raw),
	}
}

// summarizeTAF extracts a one-line interpretation from a raw TAF.
func summarizeTAF(raw string) string {
	if raw == "" {
		return "No forecast available"
	}
	upper := strings.ToUpper(raw)

	var conditions []string
	if strings.Contains(upper, "VFR") {
		conditions = append(conditions, "VFR conditions expected")
	} else if strings.Contains(upper, "IFR") {
		conditions = append(conditions, "IFR conditions expected")
	}

	for _, wxCode := range []string{"RA", "SN", "TS"} {
		if strings.Contains(upper, wxCode) {
			conditions = append(conditions, "Precipitation expected")
			break
		}
	}

	for _, vis := range []string{"1SM", "2SM", "3SM"} {
		if strings.Contains(raw, vis) {
			conditions = append(conditions, "Reduced visibility")
			break
		}
	}

	if len(conditions) == 0 {
		return "Standard conditions forecast"
	}
	return strings.Join(conditions, "; ")
}

// applyPireps converts and attaches pilot reports, newest first,
// capped at maxPireps.
func applyPireps(obs *Observation, payloads []pirepPayload) {
	if len(payloads) > maxPireps {
		payloads = payloads[:maxPireps]
	}
	for _, p := range payloads {
		obs.Pireps = append(obs.Pireps, PirepReport{
			ReportTime:   p.ObsTime.String(),
			AircraftType: p.AircraftType,
			Altitude:     p.FlightLevel.String(),
			Turbulence:   p.Turbulence,
			Icing:        p.Icing,
			Visibility:   p.Visibility.String(),
			Raw:          p.Raw,
			Location:     p.Location,
		})
	}
	obs.PirepSummary = summarizePireps(obs.Pireps)
}

func summarizePireps(pireps []PirepReport) string {
	if len(pireps) == 0 {
		return "No recent pilot reports available"
	}

	var lines []string
	for _, p := range pireps {
		alt := p.Altitude
		if alt == "" {
			alt = "unknown altitude"
		}
		if p.Turbulence != "" {
			lines = append(lines, fmt.Sprintf("Turbulence reported at %s", alt))
		}
		if p.Icing != "" {
			lines = append(lines, fmt.Sprintf("Icing conditions at %s", alt))
		}
	}

	if len(lines) == 0 {
		return "Standard conditions reported"
	}
	return strings.Join(lines, "; ")
}

// sigmetKeywords mark area advisories relevant even when they don't
// name the airport.
var sigmetKeywords = []string{"CONVECTIVE", "TURBULENCE", "ICING", "OBSCURATION"}

// applySigmets filters the area-wide advisory list down to those
// relevant to the airport and attaches them.
func applySigmets(obs *Observation, payloads []sigmetPayload, airportCode string) {
	code := strings.ToUpper(airportCode)

	for _, s := range payloads {
		raw := strings.ToUpper(s.Raw)

		relevant := strings.Contains(raw, code)
		if !relevant {
			for _, kw := range sigmetKeywords {
				if strings.Contains(raw, kw) {
					relevant = true
					break
				}
			}
		}
		if !relevant {
			continue
		}

		obs.Sigmets = append(obs.Sigmets, SigmetWarning{
			Hazard:    hazardString(s.Hazard),
			Severity:  orUnknown(s.Severity),
			ValidFrom: s.ValidFrom,
			ValidTo:   s.ValidTo,
			Raw:       s.Raw,
			Type:      orUnknown(s.Type),
		})
	}

	obs.SigmetSummary = summarizeSigmets(obs.Sigmets)
}

// hazardString flattens the hazard field, which is sometimes a list
// upstream.
func hazardString(hazard any) string {
	switch v := hazard.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, h := range v {
			parts = append(parts, fmt.Sprint(h))
		}
		return strings.Join(parts, ", ")
	case nil:
		return "Unknown"
	default:
		return fmt.Sprint(v)
	}
}

func summarizeSigmets(sigmets []SigmetWarning) string {
	if len(sigmets) == 0 {
		return "No active significant weather advisories"
	}

	seen := make(map[string]bool)
	var hazards []string
	for _, s := range sigmets {
		if !seen[s.Hazard] {
			seen[s.Hazard] = true
			hazards = append(hazards, s.Hazard)
		}
	}
	return fmt.Sprintf("Active advisories: %s", strings.Join(hazards, ", "))
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
