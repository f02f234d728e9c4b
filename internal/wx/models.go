package wx

import (
	"time"

	"github.com/flightwx/skybrief/internal/history"
)

// Source identifies one upstream weather feed.
type Source string

const (
	SourceMETAR  Source = "metar"
	SourceTAF    Source = "taf"
	SourcePIREP  Source = "pirep"
	SourceSIGMET Source = "sigmet"
)

// Source tags recorded on every observation. Downstream consumers use
// these to tell live data from synthesized data; the list is never
// empty.
const (
	TagMETAR         = "METAR"
	TagTAF           = "TAF"
	TagPIREP         = "PIREP"
	TagSIGMET        = "SIGMET"
	TagFallbackMETAR = "FALLBACK_METAR"
	TagFallbackTAF   = "FALLBACK_TAF"
	TagHistorical    = "HISTORICAL"
	TagModels        = "ML_MODELS"
)

// maxPireps caps the number of pilot reports attached to an observation.
const maxPireps = 5

// Observation is the fused per-airport weather snapshot. Built fresh
// per request; never persisted.
type Observation struct {
	AirportCode string    `json:"airport_code"`
	ObservedAt  time.Time `json:"observation_time"`
	RawMETAR    string    `json:"raw_metar"`

	TemperatureC float64 `json:"temperature_celsius"`
	TemperatureF float64 `json:"temperature_fahrenheit"`
	DewpointC    float64 `json:"dewpoint_celsius"`

	WindDirDeg   float64 `json:"wind_direction_degrees"`
	WindSpeedKts float64 `json:"wind_speed_knots"`
	WindSpeedMPH float64 `json:"wind_speed_mph"`

	VisibilitySM float64 `json:"visibility_statute_miles"`
	VisibilityKM float64 `json:"visibility_kilometers"`

	PressureInHg float64 `json:"barometric_pressure_inhg"`
	PressureMb   float64 `json:"barometric_pressure_mb"`

	FlightCategory string `json:"flight_category"`

	Forecast *Forecast `json:"forecast,omitempty"`

	Pireps       []PirepReport `json:"pirep_reports,omitempty"`
	PirepSummary string        `json:"pirep_summary,omitempty"`

	Sigmets       []SigmetWarning `json:"sigmet_warnings,omitempty"`
	SigmetSummary string          `json:"sigmet_summary,omitempty"`

	Historical *history.Pattern `json:"historical_context,omitempty"`

	Sources []string `json:"sources"`
}

// HasSource reports whether the given tag contributed to this
// observation.
func (o *Observation) HasSource(tag string) bool {
	for _, s := range o.Sources {
		if s == tag {
			return true
		}
	}
	return false
}

// PirepTurbulenceCount returns how many attached pilot reports carry a
// turbulence remark.
func (o *Observation) PirepTurbulenceCount() int {
	n := 0
	for _, p := range o.Pireps {
		if p.Turbulence != "" {
			n++
		}
	}
	return n
}

// PirepIcingCount returns how many attached pilot reports carry an
// icing remark.
func (o *Observation) PirepIcingCount() int {
	n := 0
	for _, p := range o.Pireps {
		if p.Icing != "" {
			n++
		}
	}
	return n
}

// SigmetHazardCount returns how many attached advisories name the
// given hazard keyword.
func (o *Observation) SigmetHazardCount(keyword string) int {
	n := 0
	for _, s := range o.Sigmets {
		if containsFold(s.Hazard, keyword) {
			n++
		}
	}
	return n
}

// Forecast is the terminal forecast attached to an observation.
type Forecast struct {
	RawTAF    string `json:"raw_taf"`
	IssuedAt  string `json:"forecast_issued"`
	ValidFrom string `json:"forecast_valid_from"`
	ValidTo   string `json:"forecast_valid_to"`
	Summary   string `json:"forecast_summary"`
}

// PirepReport is one pilot-submitted in-flight weather report.
type PirepReport struct {
	ReportTime   string `json:"report_time"`
	AircraftType string `json:"aircraft_type"`
	Altitude     string `json:"altitude"`
	Turbulence   string `json:"turbulence,omitempty"`
	Icing        string `json:"icing,omitempty"`
	Visibility   string `json:"visibility,omitempty"`
	Raw          string `json:"raw_pirep"`
	Location     string `json:"location,omitempty"`
}

// SigmetWarning is one significant-weather advisory relevant to the
// airport area.
type SigmetWarning struct {
	Hazard    string `json:"hazard"`
	Severity  string `json:"severity"`
	ValidFrom string `json:"valid_time_from"`
	ValidTo   string `json:"valid_time_to"`
	Raw       string `json:"raw_sigmet"`
	Type      string `json:"sigmet_type"`
}

// sourceStatus is the per-source outcome: a fetch either succeeded
// with usable data, succeeded with unusable data, or failed outright.
// The resolution step substitutes fallbacks for primary sources and
// omissions for supplementary ones.
type sourceStatus int

const (
	statusOK sourceStatus = iota
	statusUnusable
	statusFailed
)

// fetchResult carries one source's outcome back to the resolution step.
type fetchResult struct {
	source Source
	status sourceStatus
	data   any
	err    error
}

// Config holds the aggregator settings. Mirrors the config package's
// weather section to avoid a circular import, the same way the service
// configs are passed around elsewhere in this codebase.
type Config struct {
	APIBaseURL              string `toml:"api_base_url"`
	PrimaryTimeoutSeconds   int    `toml:"primary_timeout_seconds"`
	SecondaryTimeoutSeconds int    `toml:"secondary_timeout_seconds"`
	CacheSize               int    `toml:"cache_size"`
	CacheTTLMinutes         int    `toml:"cache_ttl_minutes"`
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:              "https://aviationweather.gov/api/data",
		PrimaryTimeoutSeconds:   30,
		SecondaryTimeoutSeconds: 20,
		CacheSize:               256,
		CacheTTLMinutes:         10,
	}
}
