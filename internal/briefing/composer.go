package briefing

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/geo"
	"github.com/flightwx/skybrief/internal/predict"
	"github.com/flightwx/skybrief/internal/risk"
	"github.com/flightwx/skybrief/internal/wx"
	"github.com/flightwx/skybrief/pkg/logger"
)

// Thresholds applied when rolling per-airport assessments up to the
// route level.
const (
	cautionRiskScore    = 50.0
	highRiskLegScore    = 60.0
	forecastTurbCaution = 0.7
	insightScoreFloor   = 0.5
)

// Composer assembles route briefings from the geometry engine, the
// weather aggregator and the model bridge. All dependencies are
// read-only; Compose is safe for concurrent use.
type Composer struct {
	engine       *geo.Engine
	weather      *wx.Aggregator
	bridge       *predict.Bridge
	narrator     *Narrator
	logger       *logger.Logger
	pointsPerLeg int
	now          func() time.Time
}

// NewComposer wires a briefing composer. narrator may be nil, in which
// case briefings carry no narrative.
func NewComposer(engine *geo.Engine, weather *wx.Aggregator, bridge *predict.Bridge, narrator *Narrator, pointsPerLeg int, log *logger.Logger) *Composer {
	if pointsPerLeg <= 1 {
		pointsPerLeg = geo.DefaultPointsPerLeg
	}
	return &Composer{
		engine:       engine,
		weather:      weather,
		bridge:       bridge,
		narrator:     narrator,
		logger:       log.Named("briefing"),
		pointsPerLeg: pointsPerLeg,
		now:          time.Now,
	}
}

// BriefAirport builds the fused picture for a single airport.
func (c *Composer) BriefAirport(ctx context.Context, rec *airports.Record) *AirportBriefing {
	obs := c.weather.Observe(ctx, rec.ICAO)
	preds := c.bridge.Predict(obs, rec, c.now())
	if preds != nil && !obs.HasSource(wx.TagModels) {
		// The aggregator shares cached observations across requests;
		// tag a private copy, never the published slice.
		tagged := *obs
		tagged.Sources = append(append([]string(nil), obs.Sources...), wx.TagModels)
		obs = &tagged
	}
	return &AirportBriefing{
		Code:        rec.ICAO,
		Name:        rec.Name,
		Observation: obs,
		Predictions: preds,
		Risk:        risk.Score(obs, preds),
	}
}

// Compose builds the full route briefing: geometry first, then
// concurrent weather acquisition for every distinct endpoint, then
// per-leg forecasts and the route-level rollup.
func (c *Composer) Compose(ctx context.Context, codes []string, circular, detail bool) (*Briefing, error) {
	route, err := c.engine.BuildRoute(codes, circular, c.pointsPerLeg)
	if err != nil {
		return nil, err
	}

	now := c.now()
	records := distinctEndpoints(route)

	briefs := make(map[string]*AirportBriefing, len(records))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			ab := c.BriefAirport(gctx, rec)
			mu.Lock()
			briefs[rec.ICAO] = ab
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Briefing{
		GeneratedAt: now,
		Airports:    codes,
		Circular:    route.Circular,
		Detail:      detail,
		Legs:        make([]*LegBriefing, 0, len(route.Legs)),
	}

	for _, leg := range route.Legs {
		lb := c.briefLeg(leg, briefs[leg.Origin.ICAO], briefs[leg.Destination.ICAO], now)
		if !detail {
			lb.Forecast = nil
		}
		b.Legs = append(b.Legs, lb)
	}

	b.Summary = c.summarize(route, b.Legs, briefs, now)

	if c.narrator != nil {
		text, err := c.narrator.Summarize(ctx, b)
		if err != nil {
			c.logger.Warn("Narrative generation failed, omitting",
				logger.Error(err))
		} else {
			b.Narrative = text
		}
	}

	c.logger.Info("Briefing composed",
		logger.Int("legs", len(b.Legs)),
		logger.Float64("max_risk", b.Summary.MaxRisk),
		logger.String("status", b.Summary.OverallStatus))
	return b, nil
}

// briefLeg pairs a geometric leg with its endpoint briefings and an
// hourly in-flight forecast.
func (c *Composer) briefLeg(leg *geo.Leg, origin, dest *AirportBriefing, now time.Time) *LegBriefing {
	lb := &LegBriefing{
		Origin:               origin,
		Destination:          dest,
		DistanceNM:           leg.DistanceNM,
		DistanceKM:           leg.DistanceKM,
		MagneticCourse:       leg.MagneticCourse,
		AntimeridianCrossing: leg.AntimeridianCrossing,
		Flight:               leg.Flight,
	}

	lb.Forecast = c.forecastLeg(leg, origin, dest, now)
	lb.MaxRisk = math.Max(origin.Risk.Score, dest.Risk.Score)
	lb.HighRisk = lb.MaxRisk > highRiskLegScore

	lb.Status = StatusNormal
	if origin.Risk.Score > cautionRiskScore || dest.Risk.Score > cautionRiskScore {
		lb.Status = StatusCaution
	}
	for _, fp := range lb.Forecast {
		if fp.TurbulenceScore != nil && *fp.TurbulenceScore > forecastTurbCaution {
			lb.Status = StatusCaution
			break
		}
	}
	return lb
}

// forecastLeg produces one point per flight hour plus the arrival
// slice. Temperature and wind blend linearly between the endpoint
// observations; turbulence and icing re-run the models with the
// hour-of-day feature advanced.
func (c *Composer) forecastLeg(leg *geo.Leg, origin, dest *AirportBriefing, now time.Time) []ForecastPoint {
	duration := leg.Flight.DurationHours
	numPoints := int(duration) + 2

	base := predict.BuildFeatures(origin.Observation, leg.Origin, now)

	points := make([]ForecastPoint, 0, numPoints)
	for hour := 0; hour < numPoints; hour++ {
		progress := 1.0
		if duration > 0 {
			progress = math.Min(float64(hour)/duration, 1.0)
		} else if hour == 0 {
			progress = 0.0
		}

		pos := pointAt(leg.Points, progress)
		fp := ForecastPoint{
			Hour:            hour,
			ProgressPercent: math.Round(progress*1000) / 10,
			Latitude:        pos.Latitude,
			Longitude:       pos.Longitude,
			TemperatureC:    blend(origin.Observation.TemperatureC, dest.Observation.TemperatureC, progress),
			WindSpeedKts:    blend(origin.Observation.WindSpeedKts, dest.Observation.WindSpeedKts, progress),
		}

		if set := c.bridge.PredictFeatures(origin.Observation, predict.AdvanceHour(base, hour)); set != nil {
			fp.TurbulenceScore = set.TurbulenceScore
			fp.IcingScore = set.IcingScore
		}
		points = append(points, fp)
	}
	return points
}

// summarize rolls the per-leg and per-airport assessments up into the
// route verdict.
func (c *Composer) summarize(route *geo.Route, legs []*LegBriefing, briefs map[string]*AirportBriefing, now time.Time) RouteSummary {
	s := RouteSummary{
		TotalNM:            route.TotalNM,
		TotalKM:            route.TotalKM,
		TotalDurationHours: route.TotalDuration,
		OverallStatus:      StatusNormal,
		SeasonalContext:    seasonalContext(now),
	}

	var worst *AirportBriefing
	modeled := false
	for _, ab := range briefs {
		if worst == nil || ab.Risk.Score > worst.Risk.Score {
			worst = ab
		}
		if ab.Predictions != nil {
			modeled = true
		}
		s.MLInsights = append(s.MLInsights, insights(ab)...)
	}
	if worst != nil {
		s.MaxRisk = worst.Risk.Score
		s.OverallAssessment = worst.Risk.Recommendation
	}

	// AvgRisk averages the per-leg worst endpoint, so an airport shared
	// by several legs counts once per leg it endangers.
	legSum := 0.0
	for _, lb := range legs {
		legSum += lb.MaxRisk
		if lb.Status == StatusCaution {
			s.OverallStatus = StatusCaution
		}
		if lb.HighRisk {
			s.HighRiskLegs = append(s.HighRiskLegs,
				lb.Origin.Code+"-"+lb.Destination.Code)
		}
	}
	if len(legs) > 0 {
		s.AvgRisk = math.Round(legSum/float64(len(legs))*10) / 10
	}

	if modeled && len(s.MLInsights) == 0 {
		s.MLInsights = append(s.MLInsights, "Normal conditions predicted")
	}
	return s
}

// insights reports model scores worth calling out in the summary.
func insights(ab *AirportBriefing) []string {
	p := ab.Predictions
	if p == nil {
		return nil
	}
	var lines []string
	if p.TurbulenceScore != nil && *p.TurbulenceScore > insightScoreFloor {
		lines = append(lines, ab.Code+": elevated turbulence probability "+formatScore(*p.TurbulenceScore))
	}
	if p.IcingScore != nil && *p.IcingScore > insightScoreFloor {
		lines = append(lines, ab.Code+": elevated icing probability "+formatScore(*p.IcingScore))
	}
	if p.PredictedWeather == "SEVERE" || p.PredictedWeather == "PRECIPITATION" {
		lines = append(lines, ab.Code+": models forecast "+p.PredictedWeather+" conditions")
	}
	return lines
}

func formatScore(v float64) string {
	return "(" + strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + ")"
}

func blend(a, b, f float64) float64 {
	return math.Round((a+(b-a)*f)*10) / 10
}

// pointAt indexes the interpolated path by fractional progress.
func pointAt(points []geo.Point, progress float64) geo.Point {
	if len(points) == 0 {
		return geo.Point{}
	}
	idx := int(progress * float64(len(points)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(points) {
		idx = len(points) - 1
	}
	return points[idx]
}

// distinctEndpoints collects the unique airport records across all
// legs, preserving first-seen order.
func distinctEndpoints(route *geo.Route) []*airports.Record {
	seen := make(map[string]bool)
	var records []*airports.Record
	for _, leg := range route.Legs {
		for _, rec := range []*airports.Record{leg.Origin, leg.Destination} {
			if !seen[rec.ICAO] {
				seen[rec.ICAO] = true
				records = append(records, rec)
			}
		}
	}
	return records
}

// seasonalContext gives the month-driven planning note attached to
// every summary.
func seasonalContext(now time.Time) string {
	switch now.Month() {
	case time.December, time.January, time.February:
		return "Winter season: icing and low ceilings are the dominant hazards."
	case time.March, time.April, time.May:
		return "Spring season: rapidly changing conditions and gusty frontal winds."
	case time.June, time.July, time.August:
		return "Summer season: afternoon convective activity and thunderstorms peak."
	default:
		return "Autumn season: fog and early frontal systems are the dominant hazards."
	}
}
