package config_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/config"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(nil))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "payroll.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.UseMemoryStore())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(map[string]string{
		"PORT":               "9090",
		"DB_PATH":            "memory",
		"TIMEZONE":           "Asia/Taipei",
		"LOG_LEVEL":          "debug",
		"LOG_FORMAT":         "text",
		"PAYROLL_WORKERS":    "8",
		"SCHEDULER_INTERVAL": "15m",
		"SCHEDULER_ENABLED":  "false",
		"REDIS_ADDRESS":      "localhost:6379",
		"CORS_ORIGINS":       "http://a.test, http://b.test,",
	}))

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.SchedulerInterval)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port not a number", map[string]string{"PORT": "eighty"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"zero workers", map[string]string{"PAYROLL_WORKERS": "0"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}},
		{"bad interval", map[string]string{"SCHEDULER_INTERVAL": "soon"}},
		{"interval too short", map[string]string{"SCHEDULER_INTERVAL": "10ms"}},
		{"bad bool", map[string]string{"SCHEDULER_ENABLED": "maybe"}},
		{"unknown timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromEnv(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DB_PATH", "memory")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.True(t, cfg.UseMemoryStore())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := config.NewLogger("warn", "json", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	config.LogError(logger, "payroll", "CalculateMonth", "replace failed", "2026-02", errors.New("disk full"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "disk full", line["msg"])
	assert.Equal(t, "payroll", line["module"])
	assert.Equal(t, "CalculateMonth", line["funcName"])
	assert.Equal(t, "2026-02", line["data"])

	_, err = config.NewLogger("loud", "json", nil)
	assert.Error(t, err)
	_, err = config.NewLogger("info", "xml", nil)
	assert.Error(t, err)
}
