package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BANDWEATHER_FORECAST_API_KEY", "test-key")

	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "bandweather", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "http://api.wunderground.com", cfg.Forecast.BaseURL)
	assert.Equal(t, 5, cfg.Forecast.Days)
	assert.Equal(t, 15*time.Second, cfg.Location.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Location.MaxAge)
	assert.Equal(t, 5000, cfg.Location.AccuracyMeters)
	assert.Equal(t, 5, cfg.Band.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.Band.ConnectDelay)
	assert.Equal(t, 32*time.Minute, cfg.Schedule.TimerInterval)
	assert.Equal(t, "bandweather.db", cfg.Storage.SettingsPath)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
app:
  env: production
forecast:
  api_key: from-file
  days: 7
  alternate_base_url: http://alt.example.com
location:
  mode: static
  latitude: 30.27
  longitude: -97.74
schedule:
  timer_interval: 45m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("BANDWEATHER_FORECAST_DAYS", "3")
	t.Setenv("BANDWEATHER_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "from-file", cfg.Forecast.APIKey)
	assert.Equal(t, 3, cfg.Forecast.Days)
	assert.Equal(t, "http://alt.example.com", cfg.Forecast.AlternateBaseURL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.InDelta(t, 30.27, cfg.Location.Latitude, 1e-9)
	assert.Equal(t, 45*time.Minute, cfg.Schedule.TimerInterval)
	// untouched by file and env
	assert.Equal(t, 15*time.Second, cfg.Location.Timeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Forecast.APIKey = "k"
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api key", func(c *Config) { c.Forecast.APIKey = "" }, "APIKey"},
		{"too many days", func(c *Config) { c.Forecast.Days = 11 }, "Days"},
		{"bad mode", func(c *Config) { c.Location.Mode = "gps" }, "Mode"},
		{"latitude out of range", func(c *Config) { c.Location.Latitude = 91 }, "Latitude"},
		{"no connect attempts", func(c *Config) { c.Band.ConnectAttempts = 0 }, "ConnectAttempts"},
		{"timer too short", func(c *Config) { c.Schedule.TimerInterval = time.Second }, "TimerInterval"},
		{"postal code without geocoder", func(c *Config) { c.Location.UsePostalCode = true }, "geocoder_api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
