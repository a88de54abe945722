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
	t.Setenv("SLA_MONITOR_INTERVAL_SECONDS", "")
	t.Setenv("SLA_DEFAULTS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.SLA.MonitorInterval())
	assert.Equal(t, "helpdesk:notifications", cfg.Notification.Channel)
	assert.Empty(t, cfg.SLA.DefaultHours)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SLA_MONITOR_INTERVAL_SECONDS", "15")
	t.Setenv("STORAGE_PRESIGN_TTL_MINUTES", "5")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.SLA.MonitorInterval())
	assert.Equal(t, 5*time.Minute, cfg.Storage.PresignTTL())
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadSLADefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sla.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hours:\n  p0: 2\n  P3: 100\n"), 0o600))

	hours, err := LoadSLADefaults(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P0": 2, "P3": 100}, hours)
}

func TestLoadSLADefaults_RejectsNonPositive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sla.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hours:\n  P1: 0\n"), 0o600))

	_, err := LoadSLADefaults(path)
	assert.Error(t, err)
}

func TestLoadSLADefaults_EmptyPath(t *testing.T) {
	hours, err := LoadSLADefaults("")
	require.NoError(t, err)
	assert.Nil(t, hours)
}

func TestLoadSLADefaults_MissingFile(t *testing.T) {
	_, err := LoadSLADefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
