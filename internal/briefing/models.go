package briefing

import (
	"time"

	"github.com/flightwx/skybrief/internal/geo"
	"github.com/flightwx/skybrief/internal/predict"
	"github.com/flightwx/skybrief/internal/risk"
	"github.com/flightwx/skybrief/internal/wx"
)

// Route condition statuses.
const (
	StatusNormal  = "NORMAL"
	StatusCaution = "CAUTION"
)

// AirportBriefing is the fused per-airport picture: the live (or
// synthesized) observation, optional model output and the composite
// risk assessment.
type AirportBriefing struct {
	Code        string          `json:"airport_code"`
	Name        string          `json:"airport_name"`
	Observation *wx.Observation `json:"observation"`
	Predictions *predict.Set    `json:"predictions,omitempty"`
	Risk        risk.Assessment `json:"risk"`
}

// ForecastPoint is one hourly slice of in-flight conditions along a
// leg. Temperature and wind are linear blends of the endpoint
// observations; turbulence and icing come from the models when loaded.
type ForecastPoint struct {
	Hour            int      `json:"hour"`
	ProgressPercent float64  `json:"progress_percent"`
	Latitude        float64  `json:"lat"`
	Longitude       float64  `json:"lon"`
	TemperatureC    float64  `json:"temperature_celsius"`
	WindSpeedKts    float64  `json:"wind_speed_knots"`
	TurbulenceScore *float64 `json:"turbulence_score,omitempty"`
	IcingScore      *float64 `json:"icing_score,omitempty"`
}

// LegBriefing pairs one geometric leg with the weather picture at both
// ends and an hourly forecast along the path.
type LegBriefing struct {
	Origin      *AirportBriefing `json:"origin"`
	Destination *AirportBriefing `json:"destination"`

	DistanceNM           float64          `json:"distance_nm"`
	DistanceKM           float64          `json:"distance_km"`
	MagneticCourse       float64          `json:"magnetic_course"`
	AntimeridianCrossing bool             `json:"antimeridian_crossing"`
	Flight               geo.FlightParams `json:"flight"`

	Forecast []ForecastPoint `json:"hourly_forecast,omitempty"`

	Status   string  `json:"status"`
	MaxRisk  float64 `json:"max_risk"`
	HighRisk bool    `json:"high_risk"`
}

// RouteSummary aggregates the per-leg assessments into the route-level
// verdict the briefing leads with.
type RouteSummary struct {
	TotalNM            float64  `json:"total_nm"`
	TotalKM            float64  `json:"total_km"`
	TotalDurationHours float64  `json:"total_duration_hours"`
	MaxRisk            float64  `json:"max_risk"`
	AvgRisk            float64  `json:"avg_risk"`
	HighRiskLegs       []string `json:"high_risk_legs,omitempty"`
	OverallStatus      string   `json:"overall_status"`
	OverallAssessment  string   `json:"overall_assessment"`
	SeasonalContext    string   `json:"seasonal_context"`
	MLInsights         []string `json:"ml_insights,omitempty"`
}

// Briefing is the complete route briefing document.
type Briefing struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Airports    []string       `json:"airports"`
	Circular    bool           `json:"circular"`
	Detail      bool           `json:"detail"`
	Legs        []*LegBriefing `json:"legs"`
	Summary     RouteSummary   `json:"summary"`
	Narrative   string         `json:"narrative,omitempty"`
}
