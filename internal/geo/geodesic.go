package geo

import "math"

// WGS84 ellipsoid parameters
const (
	wgs84A = 6378137.0           // semi-major axis (m)
	wgs84F = 1 / 298.257223563   // flattening
	wgs84B = wgs84A * (1 - wgs84F)

	// Mean earth radius used for the Haversine cross-check (m)
	earthMeanRadiusM = 6371008.8

	MetersPerNM = 1852.0
	MetersPerKM = 1000.0
)

// Inverse solves the geodesic inverse problem on the WGS84 ellipsoid
// (Vincenty, 1975): distance in meters plus forward azimuth at the
// first point and back azimuth at the second, both in degrees [0,360).
// For near-antipodal pairs where the iteration fails to converge it
// falls back to the spherical solution.
func Inverse(lat1, lon1, lat2, lon2 float64) (distM, fwdAz, backAz float64) {
	if lat1 == lat2 && lon1 == lon2 {
		return 0, 0, 0
	}

	phi1 := radians(lat1)
	phi2 := radians(lat2)
	L := radians(normalizeLongitude(lon2 - lon1))

	U1 := math.Atan((1 - wgs84F) * math.Tan(phi1))
	U2 := math.Atan((1 - wgs84F) * math.Tan(phi2))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	lambda := L
	var sinLambda, cosLambda, sinSigma, cosSigma, sigma, sinAlpha, cos2Alpha, cos2SigmaM float64

	converged := false
	for i := 0; i < 200; i++ {
		sinLambda, cosLambda = math.Sincos(lambda)
		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) +
			math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			return 0, 0, 0 // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha = cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha == 0 {
			cos2SigmaM = 0 // equatorial line
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}
		C := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		lambdaPrev := lambda
		lambda = L + (1-C)*wgs84F*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-lambdaPrev) < 1e-12 {
			converged = true
			break
		}
	}

	if !converged {
		// Near-antipodal: the spherical answer is within a few km,
		// which is good enough for briefing-level distances.
		distM = Haversine(lat1, lon1, lat2, lon2)
		fwdAz = initialBearing(lat1, lon1, lat2, lon2)
		backAz = initialBearing(lat2, lon2, lat1, lon1)
		return distM, fwdAz, backAz
	}

	u2 := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*
		(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	distM = wgs84B * A * (sigma - deltaSigma)

	alpha1 := math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
	alpha2 := math.Atan2(cosU1*sinLambda, -sinU1*cosU2+cosU1*sinU2*cosLambda)

	fwdAz = normalizeBearing(degrees(alpha1))
	backAz = normalizeBearing(degrees(alpha2) + 180)
	return distM, fwdAz, backAz
}

// Haversine returns the great-circle distance in meters on a
// mean-radius sphere. Used as a sanity cross-check of the ellipsoidal
// distance, never as the primary answer.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(a)))

	return earthMeanRadiusM * c
}

// initialBearing returns the spherical initial bearing from point 1 to
// point 2 in degrees [0,360).
func initialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return normalizeBearing(degrees(math.Atan2(y, x)))
}

// normalizeLongitude wraps a longitude into [-180, 180].
func normalizeLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func normalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
