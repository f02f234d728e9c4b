package history

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// accumulator collects running sums for one airport while seeding.
type accumulator struct {
	tempSum, windSum float64
	count            int
	conditions       map[string]int
	monthTemp        [13]float64
	monthWind        [13]float64
	monthCount       [13]int
}

// Seed builds the pattern tables from a historical observations CSV
// with columns airport_code,date,temperature,wind_speed,weather_type.
// Existing patterns are replaced. Intended for offline preparation of
// the database the Store loads at startup.
func Seed(dbPath, csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open historical data: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read historical CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"airport_code", "date", "temperature", "wind_speed"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("historical CSV missing column %q", required)
		}
	}

	accs := make(map[string]*accumulator)
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read historical CSV: %w", err)
	}

	for _, row := range rows {
		code := row[col["airport_code"]]
		if code == "" {
			continue
		}
		temp, err := strconv.ParseFloat(row[col["temperature"]], 64)
		if err != nil {
			continue
		}
		wind, err := strconv.ParseFloat(row[col["wind_speed"]], 64)
		if err != nil {
			continue
		}

		acc, ok := accs[code]
		if !ok {
			acc = &accumulator{conditions: make(map[string]int)}
			accs[code] = acc
		}
		acc.tempSum += temp
		acc.windSum += wind
		acc.count++

		if ci, ok := col["weather_type"]; ok && row[ci] != "" {
			acc.conditions[row[ci]]++
		}

		if date, err := time.Parse("2006-01-02", row[col["date"]]); err == nil {
			m := int(date.Month())
			acc.monthTemp[m] += temp
			acc.monthWind[m] += wind
			acc.monthCount[m]++
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open patterns database: %w", err)
	}
	defer db.Close()

	if err := initSchema(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for code, acc := range accs {
		if acc.count == 0 {
			continue
		}
		dominant := "Unknown"
		best := 0
		for cond, n := range acc.conditions {
			if n > best {
				dominant, best = cond, n
			}
		}

		_, err := tx.Exec(`
			INSERT OR REPLACE INTO weather_patterns
			(airport_code, avg_temperature, avg_wind_speed, dominant_condition)
			VALUES (?, ?, ?, ?)`,
			code, acc.tempSum/float64(acc.count), acc.windSum/float64(acc.count), dominant)
		if err != nil {
			return fmt.Errorf("failed to insert pattern for %s: %w", code, err)
		}

		for m := 1; m <= 12; m++ {
			if acc.monthCount[m] == 0 {
				continue
			}
			_, err := tx.Exec(`
				INSERT OR REPLACE INTO weather_pattern_months
				(airport_code, month, avg_temperature, avg_wind_speed)
				VALUES (?, ?, ?, ?)`,
				code, m,
				acc.monthTemp[m]/float64(acc.monthCount[m]),
				acc.monthWind[m]/float64(acc.monthCount[m]))
			if err != nil {
				return fmt.Errorf("failed to insert monthly pattern for %s: %w", code, err)
			}
		}
	}

	return tx.Commit()
}
