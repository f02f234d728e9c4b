package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Airports AirportsConfig `toml:"airports"` // Airport directory settings
	History  HistoryConfig  `toml:"history"`  // Historical weather pattern settings
	Models   ModelsConfig   `toml:"models"`   // Predictive model artifact settings
	Weather  WeatherConfig  `toml:"wx"`       // Weather data fetching and caching settings
	Briefing BriefingConfig `toml:"briefing"` // Route briefing composition settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// AirportsConfig contains airport directory configuration
type AirportsConfig struct {
	DBPath string `toml:"db_path"` // Path to airport database CSV file (OurAirports format); empty = built-in fallback set only
}

// HistoryConfig contains historical weather pattern configuration
type HistoryConfig struct {
	DBPath string `toml:"db_path"` // Path to the SQLite pattern database; empty disables historical context
}

// ModelsConfig contains predictive model artifact configuration
type ModelsConfig struct {
	Dir string `toml:"dir"` // Directory holding model artifact JSON files; empty disables model predictions
}

// WeatherConfig contains weather acquisition and caching configuration
type WeatherConfig struct {
	APIBaseURL              string `toml:"api_base_url"`              // Base URL of the aviation weather API
	PrimaryTimeoutSeconds   int    `toml:"primary_timeout_seconds"`   // Per-request timeout for METAR and TAF fetches
	SecondaryTimeoutSeconds int    `toml:"secondary_timeout_seconds"` // Per-request timeout for PIREP and SIGMET fetches
	CacheSize               int    `toml:"cache_size"`                // Maximum number of cached observations
	CacheTTLMinutes         int    `toml:"cache_ttl_minutes"`         // Observation cache time-to-live in minutes
}

// BriefingConfig contains route briefing composition configuration
type BriefingConfig struct {
	PointsPerLeg     int    `toml:"points_per_leg"`     // Interpolated coordinates per leg (endpoints included)
	NarrativeEnabled bool   `toml:"narrative_enabled"`  // Enable plain-language narrative generation
	GeminiAPIKey     string `toml:"gemini_api_key"`     // Gemini API key, required only when narratives are enabled
	NarrativeModel   string `toml:"narrative_model"`    // Gemini model name (defaults to gemini-2.0-flash)
}

// Load reads and decodes the TOML configuration file at path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults for
// optional settings
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Airports CSV is optional but must exist when configured
	if c.Airports.DBPath != "" {
		if _, err := os.Stat(c.Airports.DBPath); os.IsNotExist(err) {
			return fmt.Errorf("airports db_path does not exist: %s", c.Airports.DBPath)
		}
	}

	if err := c.ValidateWeather(); err != nil {
		return err
	}

	return c.ValidateBriefing()
}

// ValidateWeather validates the weather acquisition section and
// applies defaults
func (c *Config) ValidateWeather() error {
	if c.Weather.APIBaseURL == "" {
		c.Weather.APIBaseURL = "https://aviationweather.gov/api/data"
	}
	if c.Weather.PrimaryTimeoutSeconds <= 0 {
		c.Weather.PrimaryTimeoutSeconds = 30
	}
	if c.Weather.SecondaryTimeoutSeconds <= 0 {
		c.Weather.SecondaryTimeoutSeconds = 20
	}
	if c.Weather.CacheSize <= 0 {
		c.Weather.CacheSize = 256
	}
	if c.Weather.CacheTTLMinutes <= 0 {
		c.Weather.CacheTTLMinutes = 10
	}
	if c.Weather.PrimaryTimeoutSeconds < c.Weather.SecondaryTimeoutSeconds {
		return fmt.Errorf("primary_timeout_seconds (%d) must not be shorter than secondary_timeout_seconds (%d)",
			c.Weather.PrimaryTimeoutSeconds, c.Weather.SecondaryTimeoutSeconds)
	}
	return nil
}

// ValidateBriefing validates the briefing section and applies defaults
func (c *Config) ValidateBriefing() error {
	if c.Briefing.PointsPerLeg <= 0 {
		c.Briefing.PointsPerLeg = 100
	}
	if c.Briefing.PointsPerLeg < 2 {
		return fmt.Errorf("points_per_leg must be at least 2, got %d", c.Briefing.PointsPerLeg)
	}
	if c.Briefing.NarrativeEnabled && c.Briefing.GeminiAPIKey == "" {
		return fmt.Errorf("gemini_api_key is required when narrative_enabled is true")
	}
	return nil
}
