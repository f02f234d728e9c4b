// Package history provides the precomputed per-airport weather pattern
// table. The table is loaded from SQLite once at startup and treated
// as read-only for the remainder of the process lifetime.
package history

import (
	"database/sql"
	"fmt"

	"github.com/flightwx/skybrief/pkg/logger"
	_ "modernc.org/sqlite"
)

// Pattern holds the historical aggregates for one airport.
type Pattern struct {
	AirportCode       string              `json:"airport_code"`
	AvgTemperatureC   float64             `json:"avg_temperature"`
	AvgWindSpeedKts   float64             `json:"avg_wind_speed"`
	DominantCondition string              `json:"common_conditions"`
	MonthlyTempC      map[int]float64     `json:"monthly_avg_temperature,omitempty"`
	MonthlyWindKts    map[int]float64     `json:"monthly_avg_wind_speed,omitempty"`
}

// Defaults used for feature building when an airport has no pattern.
const (
	DefaultAvgTemperatureC = 15.0
	DefaultAvgWindSpeedKts = 10.0
)

// Store is the read-only in-memory pattern table.
type Store struct {
	patterns map[string]*Pattern
	logger   *logger.Logger
}

// NewStore loads all patterns from the SQLite database at dbPath. An
// empty path yields an empty store; missing historical data is not an
// error anywhere downstream.
func NewStore(dbPath string, log *logger.Logger) (*Store, error) {
	s := &Store{
		patterns: make(map[string]*Pattern),
		logger:   log.Named("history"),
	}

	if dbPath == "" {
		s.logger.Warn("No historical patterns database configured")
		return s, nil
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open patterns database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, err
	}

	if err := s.loadPatterns(db); err != nil {
		return nil, err
	}
	if err := s.loadMonthly(db); err != nil {
		return nil, err
	}

	s.logger.Info("Historical patterns loaded",
		logger.String("path", dbPath),
		logger.Int("airports", len(s.patterns)))

	return s, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS weather_patterns (
			airport_code TEXT PRIMARY KEY,
			avg_temperature REAL NOT NULL,
			avg_wind_speed REAL NOT NULL,
			dominant_condition TEXT NOT NULL DEFAULT 'Unknown'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create weather_patterns table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS weather_pattern_months (
			airport_code TEXT NOT NULL,
			month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			avg_temperature REAL NOT NULL,
			avg_wind_speed REAL NOT NULL,
			PRIMARY KEY (airport_code, month)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create weather_pattern_months table: %w", err)
	}

	return nil
}

func (s *Store) loadPatterns(db *sql.DB) error {
	rows, err := db.Query(`SELECT airport_code, avg_temperature, avg_wind_speed, dominant_condition FROM weather_patterns`)
	if err != nil {
		return fmt.Errorf("failed to query weather_patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &Pattern{
			MonthlyTempC:   make(map[int]float64),
			MonthlyWindKts: make(map[int]float64),
		}
		if err := rows.Scan(&p.AirportCode, &p.AvgTemperatureC, &p.AvgWindSpeedKts, &p.DominantCondition); err != nil {
			return fmt.Errorf("failed to scan pattern row: %w", err)
		}
		s.patterns[p.AirportCode] = p
	}
	return rows.Err()
}

func (s *Store) loadMonthly(db *sql.DB) error {
	rows, err := db.Query(`SELECT airport_code, month, avg_temperature, avg_wind_speed FROM weather_pattern_months`)
	if err != nil {
		return fmt.Errorf("failed to query weather_pattern_months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var month int
		var temp, wind float64
		if err := rows.Scan(&code, &month, &temp, &wind); err != nil {
			return fmt.Errorf("failed to scan monthly row: %w", err)
		}
		if p, ok := s.patterns[code]; ok {
			p.MonthlyTempC[month] = temp
			p.MonthlyWindKts[month] = wind
		}
	}
	return rows.Err()
}

// Lookup returns the pattern for an airport, or nil when none exists.
func (s *Store) Lookup(code string) *Pattern {
	return s.patterns[code]
}

// Size returns the number of airports with patterns.
func (s *Store) Size() int {
	return len(s.patterns)
}
