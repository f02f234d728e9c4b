package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, Host: "127.0.0.1"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090
host = "127.0.0.1"

[logging]
level = "debug"
format = "console"

[wx]
cache_ttl_minutes = 5

[briefing]
points_per_leg = 64
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Weather.CacheTTLMinutes)
	assert.Equal(t, 64, cfg.Briefing.PointsPerLeg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://aviationweather.gov/api/data", cfg.Weather.APIBaseURL)
	assert.Equal(t, 30, cfg.Weather.PrimaryTimeoutSeconds)
	assert.Equal(t, 20, cfg.Weather.SecondaryTimeoutSeconds)
	assert.Equal(t, 256, cfg.Weather.CacheSize)
	assert.Equal(t, 10, cfg.Weather.CacheTTLMinutes)
	assert.Equal(t, 100, cfg.Briefing.PointsPerLeg)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"narrative without key", func(c *Config) { c.Briefing.NarrativeEnabled = true }},
		{"inverted timeouts", func(c *Config) {
			c.Weather.PrimaryTimeoutSeconds = 5
			c.Weather.SecondaryTimeoutSeconds = 10
		}},
		{"missing airports csv", func(c *Config) { c.Airports.DBPath = "/nonexistent/airports.csv" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithFallbackPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 1234\n"), 0644))

	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Server.Port)
}
