package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"VEEZI_ACCESS_TOKEN": "secret"}))

	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "https://api.us.veezi.com", cfg.ApiUrl)
	assert.Equal(t, "0", cfg.CinemaId)
	assert.Equal(t, "Cinéma Centre-Ville", cfg.CinemaName)
	assert.Equal(t, "films.json", cfg.OutputPath)
	assert.Equal(t, 11, cfg.LowSeatsThreshold)
	assert.Equal(t, time.Duration(0), cfg.LeadTime)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.Workers)
	assert.Empty(t, cfg.LegendExclude)
	assert.False(t, cfg.IncludeUpcoming)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "America/Toronto", cfg.Location.String())
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"VEEZI_ACCESS_TOKEN":  "secret",
		"LOW_SEATS_THRESHOLD": "5",
		"LEAD_TIME":           "5m",
		"LEGEND_EXCLUDE":      "DERNIÈRE, VO",
		"PAGE_SIZE":           "200",
		"WORKERS":             "4",
		"INCLUDE_UPCOMING":    "true",
		"CINEMA_TIMEZONE":     "UTC",
		"PROXY_URL":           "socks5://127.0.0.1:1080",
		"LOG_LEVEL":           "DEBUG",
		"CINEMA_ID":           "12",
	}))

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.LowSeatsThreshold)
	assert.Equal(t, 5*time.Minute, cfg.LeadTime)
	assert.Equal(t, []string{"DERNIÈRE", "VO"}, cfg.LegendExclude)
	assert.Equal(t, 200, cfg.PageSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.IncludeUpcoming)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "12", cfg.CinemaId)
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad threshold", env: map[string]string{"LOW_SEATS_THRESHOLD": "eleven"}},
		{name: "bad lead time", env: map[string]string{"LEAD_TIME": "5 minutes"}},
		{name: "negative lead time", env: map[string]string{"LEAD_TIME": "-5m"}},
		{name: "zero workers", env: map[string]string{"WORKERS": "0"}},
		{name: "bad api url", env: map[string]string{"VEEZI_API_URL": "not a url"}},
		{name: "bad timezone", env: map[string]string{"CINEMA_TIMEZONE": "Mars/Olympus"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad bool", env: map[string]string{"INCLUDE_UPCOMING": "maybe"}},
		{name: "bad start date", env: map[string]string{"SESSION_START_DATE": "01/06/2025"}},
		{name: "reversed window", env: map[string]string{"SESSION_START_DATE": "2025-06-10", "SESSION_END_DATE": "2025-06-01"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.env["VEEZI_ACCESS_TOKEN"] = "secret"
			_, err := FromLookup(lookupFrom(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestFromLookup_MissingToken(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"VEEZI_ACCESS_TOKEN": "  "}))

	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("VEEZI_ACCESS_TOKEN=from-file\nCINEMA_NAME=Le Clap\n"), 0644))
	t.Setenv("VEEZI_ACCESS_TOKEN", "")
	os.Unsetenv("VEEZI_ACCESS_TOKEN")
	t.Setenv("CINEMA_NAME", "")
	os.Unsetenv("CINEMA_NAME")

	cfg, err := Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
	assert.Equal(t, "Le Clap", cfg.CinemaName)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}
