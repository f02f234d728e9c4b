package airports

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/flightwx/skybrief/pkg/logger"
)

// Record holds the resolved position and metadata for one airport.
// Records are immutable once the directory is loaded.
type Record struct {
	ICAO        string  `json:"icao"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ElevationFt float64 `json:"elevation_ft"`
	Country     string  `json:"country"`
}

// NotFoundError is returned when an airport code cannot be resolved.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("airport %s not found", e.Code)
}

// Directory resolves ICAO codes to airport records. It is loaded once
// at startup and read-only afterward, so lookups need no locking.
type Directory struct {
	records map[string]*Record
	logger  *logger.Logger
}

// fallbackRecords covers major airports when the CSV is missing or
// incomplete. Positions match the OurAirports database.
var fallbackRecords = map[string]*Record{
	"KJFK": {ICAO: "KJFK", Name: "John F Kennedy Intl", Latitude: 40.6398, Longitude: -73.7789, ElevationFt: 13, Country: "US"},
	"KLAX": {ICAO: "KLAX", Name: "Los Angeles Intl", Latitude: 33.9425, Longitude: -118.4081, ElevationFt: 125, Country: "US"},
	"KORD": {ICAO: "KORD", Name: "Chicago O'Hare Intl", Latitude: 41.9786, Longitude: -87.9048, ElevationFt: 672, Country: "US"},
	"KDEN": {ICAO: "KDEN", Name: "Denver Intl", Latitude: 39.8617, Longitude: -104.6731, ElevationFt: 5431, Country: "US"},
	"KSEA": {ICAO: "KSEA", Name: "Seattle Tacoma Intl", Latitude: 47.4502, Longitude: -122.3088, ElevationFt: 131, Country: "US"},
	"VIDP": {ICAO: "VIDP", Name: "Indira Gandhi Intl", Latitude: 28.5562, Longitude: 77.1000, ElevationFt: 777, Country: "IN"},
	"VABB": {ICAO: "VABB", Name: "Chhatrapati Shivaji Intl", Latitude: 19.0896, Longitude: 72.8656, ElevationFt: 39, Country: "IN"},
	"VECC": {ICAO: "VECC", Name: "Netaji Subhash Chandra Bose Intl", Latitude: 22.6547, Longitude: 88.4467, ElevationFt: 16, Country: "IN"},
	"VOBL": {ICAO: "VOBL", Name: "Kempegowda Intl", Latitude: 13.1986, Longitude: 77.7066, ElevationFt: 3000, Country: "IN"},
	"EGLL": {ICAO: "EGLL", Name: "London Heathrow", Latitude: 51.4700, Longitude: -0.4543, ElevationFt: 83, Country: "GB"},
	"LFPG": {ICAO: "LFPG", Name: "Paris Charles de Gaulle", Latitude: 49.0128, Longitude: 2.5500, ElevationFt: 392, Country: "FR"},
	"EDDF": {ICAO: "EDDF", Name: "Frankfurt am Main", Latitude: 50.0264, Longitude: 8.5431, ElevationFt: 364, Country: "DE"},
	"WSSS": {ICAO: "WSSS", Name: "Singapore Changi", Latitude: 1.3644, Longitude: 103.9915, ElevationFt: 22, Country: "SG"},
	"RJTT": {ICAO: "RJTT", Name: "Tokyo Haneda Intl", Latitude: 35.5533, Longitude: 139.7811, ElevationFt: 35, Country: "JP"},
	"YSSY": {ICAO: "YSSY", Name: "Sydney Kingsford Smith Intl", Latitude: -33.9461, Longitude: 151.1772, ElevationFt: 21, Country: "AU"},
	"PHNL": {ICAO: "PHNL", Name: "Daniel K Inouye Intl", Latitude: 21.3187, Longitude: -157.9224, ElevationFt: 13, Country: "US"},
	"NZAA": {ICAO: "NZAA", Name: "Auckland Intl", Latitude: -37.0081, Longitude: 174.7917, ElevationFt: 23, Country: "NZ"},
}

// continentalDefault is the last-resort position used when building
// weather features for an airport the directory cannot resolve.
var continentalDefault = Record{
	Name:        "UNKNOWN",
	Latitude:    40.0,
	Longitude:   -100.0,
	ElevationFt: 1000,
	Country:     "US",
}

// NewDirectory loads the directory from an OurAirports-format CSV
// (id,ident,type,name,latitude_deg,longitude_deg,elevation_ft,
// continent,iso_country,...). An empty path yields a directory backed
// only by the built-in fallback table.
func NewDirectory(csvPath string, log *logger.Logger) (*Directory, error) {
	d := &Directory{
		records: make(map[string]*Record),
		logger:  log.Named("airports"),
	}

	if csvPath == "" {
		d.logger.Warn("No airports database configured, using built-in table only")
		return d, nil
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open airports database: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read airports CSV header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read airports CSV: %w", err)
	}

	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		ident := strings.ToUpper(strings.TrimSpace(row[1]))
		if len(ident) != 4 {
			continue
		}
		lat, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			continue
		}
		rec := &Record{
			ICAO:      ident,
			Name:      row[3],
			Latitude:  lat,
			Longitude: lon,
		}
		if row[6] != "" {
			if elev, err := strconv.ParseFloat(row[6], 64); err == nil {
				rec.ElevationFt = elev
			}
		}
		if len(row) > 8 {
			rec.Country = row[8]
		}
		d.records[ident] = rec
	}

	d.logger.Info("Airport directory loaded",
		logger.String("path", csvPath),
		logger.Int("airports", len(d.records)))

	return d, nil
}

// Lookup resolves an ICAO code. Unknown codes return a *NotFoundError.
func (d *Directory) Lookup(code string) (*Record, error) {
	code = strings.ToUpper(code)
	if rec, ok := d.records[code]; ok {
		return rec, nil
	}
	if rec, ok := fallbackRecords[code]; ok {
		return rec, nil
	}
	return nil, &NotFoundError{Code: code}
}

// LookupOrDefault resolves an ICAO code, falling back to a continental
// default position for unknown codes. Weather synthesis and feature
// building use this so they stay well-defined for any input; route
// geometry uses Lookup and fails hard instead.
func (d *Directory) LookupOrDefault(code string) *Record {
	if rec, err := d.Lookup(code); err == nil {
		return rec
	}
	rec := continentalDefault
	rec.ICAO = strings.ToUpper(code)
	return &rec
}

// Size returns the number of records loaded from the CSV.
func (d *Directory) Size() int {
	return len(d.records)
}
