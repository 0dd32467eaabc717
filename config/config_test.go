package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	raw := `
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: gsr
  password: secret
  name: gsr
  ssl_mode: disable
providers:
  libcal_base_url: https://libcal.example.com
  wharton_base_url: https://apps.wharton.example.com
booking:
  search_span_days: 7
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "host=localhost port=5432 user=gsr password=secret dbname=gsr sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 7, cfg.Booking.SearchSpanDays)

	// Unset fields fall back to defaults.
	assert.Equal(t, 10, cfg.Providers.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Booking.FanOutLimit)
	assert.Equal(t, 30, cfg.Booking.ReminderLeadMinutes)
	assert.Equal(t, 5, cfg.Worker.ReminderSweepMinutes)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
