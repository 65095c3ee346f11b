package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rasync/internal/factory"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/testutil"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 5, cfg.SubmitMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.HardcoreMode)
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"RASYNC_PORT":                    "9090",
		"RASYNC_LOG_LEVEL":               "debug",
		"RASYNC_HARDCORE_MODE":           "true",
		"RASYNC_OPT_IN_SET_TYPES":        "bonus,specialty",
		"RASYNC_SUBMIT_CONCURRENCY":      "8",
		"RASYNC_SUBMIT_MAX_INTERVAL":     "1m",
		"RASYNC_CREDENTIAL_SECRET":       "s3cret",
		"RASYNC_HEARTBEAT_INTERVAL":      "30s",
		"RASYNC_STORAGE_TYPE":            "redis",
		"RASYNC_REDIS_URL":               "redis://cache:6379/1",
		"RASYNC_RA_BASE_URL":             "http://localhost:9999/dorequest.php",
		"RASYNC_SUBMIT_MAX_ATTEMPTS":     "3",
		"RASYNC_REQUEST_TIMEOUT":         "5s",
		"RASYNC_API_TOKEN":               "local-token",
		"RASYNC_APP_VERSION":             "1.2.3",
		"RASYNC_SUBMIT_INITIAL_INTERVAL": "250ms",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.HardcoreMode)
	assert.Equal(t, []string{"bonus", "specialty"}, cfg.OptInSetTypes)

	fc := cfg.Factory(testutil.NopLogger())
	assert.Equal(t, factory.StorageTypeRedis, fc.StorageType)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/1", fc.RedisConfig.URL)
	assert.Equal(t, []model.SetType{model.SetTypeBonus, model.SetTypeSpecialty}, fc.Sync.OptInSetTypes)
	assert.True(t, fc.Sync.HardcoreMode)
	assert.Equal(t, 8, fc.Submission.Concurrency)
	assert.Equal(t, 3, fc.Submission.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, fc.Submission.InitialInterval)
	assert.Equal(t, time.Minute, fc.Submission.MaxInterval)
	assert.Equal(t, "s3cret", fc.Credentials.Secret)
	assert.Equal(t, 30*time.Second, fc.Presence.Interval)
	assert.Equal(t, "1.2.3", fc.API.AppVersion)
	assert.Equal(t, 5*time.Second, fc.API.Timeout)

	sc := cfg.Server()
	assert.Equal(t, 9090, sc.Port)
}

func TestRedisRequiresURL(t *testing.T) {
	_, err := LoadFrom(map[string]string{"RASYNC_STORAGE_TYPE": "redis"})
	assert.Error(t, err)
}

func TestInvalidStorageType(t *testing.T) {
	_, err := LoadFrom(map[string]string{"RASYNC_STORAGE_TYPE": "sqlite"})
	assert.Error(t, err)
}

func TestInvalidSetType(t *testing.T) {
	_, err := LoadFrom(map[string]string{"RASYNC_OPT_IN_SET_TYPES": "core,sideways"})
	assert.Error(t, err)
}

func TestMalformedDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"RASYNC_HEARTBEAT_INTERVAL": "soon"})
	assert.Error(t, err)
}
