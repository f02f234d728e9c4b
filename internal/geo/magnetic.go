package geo

import (
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// magneticDeclination returns the magnetic declination in degrees
// (+East, -West) at the given position and time, per the World
// Magnetic Model. Returns 0 if the model evaluation fails.
func magneticDeclination(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * 0.3048
	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}
	return mag.D()
}

// magneticCourse converts a true course to a magnetic course using the
// declination at the given position: magnetic = true - declination.
func magneticCourse(trueCourse, lat, lon, altFt float64, date time.Time) float64 {
	return normalizeBearing(trueCourse - magneticDeclination(lat, lon, altFt, date))
}
