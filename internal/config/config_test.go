package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/pkg/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rodaje.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "driving-car", cfg.Routing.Profile)
	assert.Equal(t, model.DefaultMaxEighthsPerDay, cfg.Planner.MaxEighthsPerDay)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFile_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 9000
  log_format: json
database:
  host: db.local
  conn_max_lifetime: 2m
planner:
  max_eighths_per_day: 48
  separate_day_night: true
redis:
  addr: localhost:6379
`)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("PLANNER_TARGET_HOURS_PER_DAY", "9.5")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port, "env wins over file")
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 2*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "rodaje", cfg.Database.Name, "defaults survive partial sections")
	assert.Equal(t, 48, cfg.Planner.MaxEighthsPerDay)
	assert.Equal(t, 9.5, cfg.Planner.TargetHoursPerDay)
	assert.True(t, cfg.Planner.SeparateDayNight)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Contains(t, cfg.Database.DSN(), "host=db.local")
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeConfig(t, `
app:
  log_format: xml
routing:
  enabled: true
`)
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "api_key")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlannerConfig_Defaults(t *testing.T) {
	p := PlannerConfig{MaxEighthsPerDay: 48, TargetHoursPerDay: 9, SeparateDayNight: true}

	o := p.Defaults(model.Options{MaxEighthsPerDay: 32})
	assert.Equal(t, 32, o.MaxEighthsPerDay, "request values win")
	assert.Equal(t, 9.0, o.TargetHoursPerDay)
	assert.True(t, o.SeparateDayNight)

	p.HoursSlack = 0.2
	assert.Equal(t, 0.2, *p.Defaults(model.Options{}).HoursSlack)
	assert.Equal(t, 0.0, *p.Defaults(model.Options{HoursSlack: model.Float(0)}).HoursSlack, "explicit zero slack is kept")
}
