package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Published great-circle distances, used as anchors.
const (
	jfkLat, jfkLon = 40.6398, -73.7789
	laxLat, laxLon = 33.9425, -118.4081
	jfkLaxNM       = 2145.0
)

func TestInverseKnownDistance(t *testing.T) {
	distM, _, _ := Inverse(jfkLat, jfkLon, laxLat, laxLon)
	distNM := distM / MetersPerNM

	assert.InEpsilon(t, jfkLaxNM, distNM, 0.05,
		"JFK-LAX should be about 2145 nm, got %.1f", distNM)
}

func TestInverseSymmetry(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"jfk-lax", jfkLat, jfkLon, laxLat, laxLon},
		{"transpacific", 37.6213, -122.3790, 35.5494, 139.7798},
		{"southern", -33.9399, 151.1753, -37.0082, 174.7850},
		{"polar-ish", 64.1300, -21.9406, 61.1744, -149.9964},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fwd, _, _ := Inverse(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			rev, _, _ := Inverse(tc.lat2, tc.lon2, tc.lat1, tc.lon1)
			assert.InDelta(t, fwd, rev, 0.5, "distance must be direction-independent")
		})
	}
}

func TestHaversineAgreesWithVincenty(t *testing.T) {
	vincenty, _, _ := Inverse(jfkLat, jfkLon, laxLat, laxLon)
	haversine := Haversine(jfkLat, jfkLon, laxLat, laxLon)

	// Ellipsoid vs sphere should stay within half a percent at this range.
	assert.InEpsilon(t, vincenty, haversine, 0.005)
}

func TestInverseCoincidentPoints(t *testing.T) {
	distM, fwdAz, backAz := Inverse(jfkLat, jfkLon, jfkLat, jfkLon)
	assert.Zero(t, distM)
	assert.Zero(t, fwdAz)
	assert.Zero(t, backAz)
}

func TestInverseAcrossAntimeridian(t *testing.T) {
	// NRT-ish to west coast: the short way crosses 180, not 0.
	distM, _, _ := Inverse(35.0, 140.0, 37.0, -122.0)
	distNM := distM / MetersPerNM

	assert.Less(t, distNM, 5500.0, "must take the short arc across the antimeridian")
	assert.Greater(t, distNM, 4000.0)
}

func TestNormalizeLongitude(t *testing.T) {
	assert.InDelta(t, -170.0, normalizeLongitude(190.0), 1e-9)
	assert.InDelta(t, 170.0, normalizeLongitude(-190.0), 1e-9)
	assert.InDelta(t, 0.0, normalizeLongitude(360.0), 1e-9)
	assert.InDelta(t, 180.0, math.Abs(normalizeLongitude(180.0)), 1e-9)
}

func TestNormalizeBearing(t *testing.T) {
	assert.InDelta(t, 10.0, normalizeBearing(370.0), 1e-9)
	assert.InDelta(t, 350.0, normalizeBearing(-10.0), 1e-9)
	assert.InDelta(t, 0.0, normalizeBearing(720.0), 1e-9)
}
