package geo

import (
	"math"
	"time"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/pkg/logger"
)

// DefaultPointsPerLeg is the number of interpolated points (endpoints
// included) generated along each leg when the caller doesn't override.
const DefaultPointsPerLeg = 100

// crossCheckToleranceM is the allowed disagreement between the
// ellipsoidal and spherical distance before a warning is logged.
const crossCheckToleranceM = 1000.0

// Point is a single coordinate on a leg's great-circle path.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// FlightParams are the estimated cruise parameters for one leg, tiered
// by distance the way dispatch planning rules of thumb do.
type FlightParams struct {
	CruiseSpeedKts  float64 `json:"cruise_speed_kts"`
	DurationHours   float64 `json:"duration_hours"`
	FuelTimeHours   float64 `json:"fuel_time_hours"`
}

// Leg is one great-circle segment between two airports. Immutable once
// built.
type Leg struct {
	Origin               *airports.Record `json:"origin"`
	Destination          *airports.Record `json:"destination"`
	DistanceKM           float64          `json:"distance_km"`
	DistanceNM           float64          `json:"distance_nm"`
	ForwardAzimuth       float64          `json:"forward_azimuth"`
	BackAzimuth          float64          `json:"back_azimuth"`
	MagneticCourse       float64          `json:"magnetic_course"`
	Points               []Point          `json:"points"`
	AntimeridianCrossing bool             `json:"antimeridian_crossing"`
	HaversineKM          float64          `json:"haversine_km"`
	Flight               FlightParams     `json:"flight"`
}

// Route is an ordered sequence of legs plus aggregate totals.
type Route struct {
	Legs          []*Leg  `json:"legs"`
	Circular      bool    `json:"circular"`
	TotalKM       float64 `json:"total_km"`
	TotalNM       float64 `json:"total_nm"`
	TotalPoints   int     `json:"total_points"`
	TotalDuration float64 `json:"total_duration_hours"`
}

// Engine computes route geometry. Stateless apart from its logger and
// the read-only airport directory.
type Engine struct {
	directory *airports.Directory
	logger    *logger.Logger
}

// NewEngine creates a route geometry engine.
func NewEngine(directory *airports.Directory, log *logger.Logger) *Engine {
	return &Engine{
		directory: directory,
		logger:    log.Named("geo"),
	}
}

// BuildLeg computes one great-circle leg between two resolved airports
// with numPoints interpolated path coordinates (endpoints included).
func (e *Engine) BuildLeg(origin, dest *airports.Record, numPoints int) *Leg {
	if numPoints < 2 {
		numPoints = DefaultPointsPerLeg
	}

	lon1 := normalizeLongitude(origin.Longitude)
	lon2 := normalizeLongitude(dest.Longitude)

	distM, fwdAz, backAz := Inverse(origin.Latitude, lon1, dest.Latitude, lon2)

	haversineM := Haversine(origin.Latitude, lon1, dest.Latitude, lon2)
	if diff := math.Abs(distM - haversineM); diff > crossCheckToleranceM {
		e.logger.Warn("Distance cross-check discrepancy",
			logger.String("origin", origin.ICAO),
			logger.String("destination", dest.ICAO),
			logger.Float64("geodesic_km", distM/MetersPerKM),
			logger.Float64("haversine_km", haversineM/MetersPerKM),
			logger.Float64("diff_km", diff/MetersPerKM))
	}

	crossing := math.Abs(lon2-lon1) > 180

	leg := &Leg{
		Origin:               origin,
		Destination:          dest,
		DistanceKM:           distM / MetersPerKM,
		DistanceNM:           distM / MetersPerNM,
		ForwardAzimuth:       fwdAz,
		BackAzimuth:          backAz,
		MagneticCourse:       magneticCourse(fwdAz, origin.Latitude, lon1, origin.ElevationFt, time.Now().UTC()),
		Points:               interpolatePath(origin.Latitude, lon1, dest.Latitude, lon2, numPoints),
		AntimeridianCrossing: crossing,
		HaversineKM:          haversineM / MetersPerKM,
	}
	leg.Flight = estimateFlightParams(leg.DistanceNM)
	return leg
}

// BuildRoute resolves the ordered airport codes and computes one leg
// per consecutive pair, plus a closing leg back to the first airport
// when circular is set. An unknown code fails the whole route.
func (e *Engine) BuildRoute(codes []string, circular bool, pointsPerLeg int) (*Route, error) {
	records := make([]*airports.Record, 0, len(codes))
	for _, code := range codes {
		rec, err := e.directory.Lookup(code)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	route := &Route{Circular: circular}
	for i := 0; i+1 < len(records); i++ {
		leg := e.BuildLeg(records[i], records[i+1], pointsPerLeg)
		route.Legs = append(route.Legs, leg)
	}
	if circular && len(records) > 1 {
		leg := e.BuildLeg(records[len(records)-1], records[0], pointsPerLeg)
		route.Legs = append(route.Legs, leg)
	}

	for _, leg := range route.Legs {
		route.TotalKM += leg.DistanceKM
		route.TotalNM += leg.DistanceNM
		route.TotalPoints += len(leg.Points)
		route.TotalDuration += leg.Flight.DurationHours
	}

	e.logger.Info("Route geometry computed",
		logger.Int("legs", len(route.Legs)),
		logger.Bool("circular", circular),
		logger.Float64("total_nm", route.TotalNM))

	return route, nil
}

// estimateFlightParams applies distance-tiered cruise speeds: regional
// legs cruise lower and slower than long-haul ones.
func estimateFlightParams(distanceNM float64) FlightParams {
	var speed float64
	switch {
	case distanceNM < 500:
		speed = 350
	case distanceNM < 1500:
		speed = 450
	default:
		speed = 500
	}
	duration := distanceNM / speed
	return FlightParams{
		CruiseSpeedKts: speed,
		DurationHours:  duration,
		FuelTimeHours:  duration + 0.5, // 30 min reserve
	}
}

// interpolatePath returns numPoints coordinates along the great circle
// from (lat1,lon1) to (lat2,lon2), endpoints exact. The interpolation
// runs on the unit sphere so the physically shorter arc is taken
// regardless of where the antimeridian falls; longitudes are emitted
// in [-180,180] and then unwrapped where needed so no consecutive pair
// jumps by more than 180 degrees.
func interpolatePath(lat1, lon1, lat2, lon2 float64, numPoints int) []Point {
	points := make([]Point, 0, numPoints)

	phi1, lambda1 := radians(lat1), radians(lon1)
	phi2, lambda2 := radians(lat2), radians(lon2)

	// Angular separation on the sphere.
	delta := 2 * math.Asin(math.Min(1, math.Sqrt(
		math.Pow(math.Sin((phi2-phi1)/2), 2)+
			math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin((lambda2-lambda1)/2), 2))))

	sinDelta := math.Sin(delta)

	for i := 0; i < numPoints; i++ {
		f := float64(i) / float64(numPoints-1)

		var lat, lon float64
		switch {
		case i == 0:
			lat, lon = lat1, normalizeLongitude(lon1)
		case i == numPoints-1:
			lat, lon = lat2, normalizeLongitude(lon2)
		case sinDelta < 1e-12:
			// Degenerate (coincident or antipodal): fall back to a
			// linear blend in an unwrapped longitude space.
			ulon1, ulon2 := unwrapPair(lon1, lon2)
			lat = lat1 + (lat2-lat1)*f
			lon = normalizeLongitude(ulon1 + (ulon2-ulon1)*f)
		default:
			a := math.Sin((1-f)*delta) / sinDelta
			b := math.Sin(f*delta) / sinDelta
			x := a*math.Cos(phi1)*math.Cos(lambda1) + b*math.Cos(phi2)*math.Cos(lambda2)
			y := a*math.Cos(phi1)*math.Sin(lambda1) + b*math.Cos(phi2)*math.Sin(lambda2)
			z := a*math.Sin(phi1) + b*math.Sin(phi2)
			lat = degrees(math.Atan2(z, math.Sqrt(x*x+y*y)))
			lon = degrees(math.Atan2(y, x))
		}

		points = append(points, Point{Latitude: lat, Longitude: normalizeLongitude(lon)})
	}

	enforceContinuity(points)
	return points
}

// unwrapPair shifts one longitude of a pair by 360 degrees when the
// wrap-around difference is shorter than the direct one, so that a
// linear blend between them follows the physically shorter path.
func unwrapPair(lon1, lon2 float64) (float64, float64) {
	lon1 = normalizeLongitude(lon1)
	lon2 = normalizeLongitude(lon2)
	direct := math.Abs(lon2 - lon1)
	if 360-direct < direct {
		if lon1 > lon2 {
			lon2 += 360
		} else {
			lon1 += 360
		}
	}
	return lon1, lon2
}

// enforceContinuity corrects any consecutive longitude jump over 180
// degrees by choosing the wrap that keeps the path continuous. Without
// this a leg crossing the antimeridian renders as a full-globe segment.
func enforceContinuity(points []Point) {
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Longitude
		lon := points[i].Longitude
		for lon-prev > 180 {
			lon -= 360
		}
		for lon-prev < -180 {
			lon += 360
		}
		points[i].Longitude = lon
	}
}
