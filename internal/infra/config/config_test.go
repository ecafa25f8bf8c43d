package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "SESSION_FILE", "PEERS_CACHE_FILE", "APP_TIMEZONE", "THROTTLE_RPS", "TEST_DC",
	"LOG_FILE", "LOG_FILE_LEVEL", "LOG_FILE_MAX_SIZE_MB", "LOG_FILE_MAX_BACKUPS",
	"LOG_FILE_MAX_AGE_DAYS", "LOG_FILE_COMPRESS",
}

// clearEnv снимает переменные на время теста; t.Setenv вернёт исходные значения после него.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_MissingEnvFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, EnvConfig{
		LogLevel:          defaultLogLevel,
		SessionFile:       defaultSessionFile,
		PeersCacheFile:    defaultPeersCacheFile,
		ThrottleRPS:       defaultThrottleRPS,
		LogFileLevel:      defaultLogFileLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogFileCompress:   defaultLogFileCompress,
	}, cfg.Env)
	require.Len(t, cfg.warnings, 1)
	assert.Contains(t, cfg.warnings[0], "not found")
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "LOG_LEVEL=DEBUG\n" +
		"SESSION_FILE=/tmp/s.session\n" +
		"APP_TIMEZONE=+03:00\n" +
		"THROTTLE_RPS=7\n" +
		"TEST_DC=true\n" +
		"LOG_FILE=/tmp/scheduler.log\n" +
		"LOG_FILE_COMPRESS=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range envKeys {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Env.LogLevel)
	assert.Equal(t, "/tmp/s.session", cfg.Env.SessionFile)
	assert.Equal(t, "+03:00", cfg.Env.AppTimezone)
	assert.Equal(t, 7, cfg.Env.ThrottleRPS)
	assert.True(t, cfg.Env.TestDC)
	assert.Equal(t, "/tmp/scheduler.log", cfg.Env.LogFile)
	assert.False(t, cfg.Env.LogFileCompress)
	assert.Empty(t, cfg.warnings)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("THROTTLE_RPS", "0")
	t.Setenv("LOG_FILE_MAX_BACKUPS", "many")
	t.Setenv("APP_TIMEZONE", "Nowhere/Never")
	t.Setenv("LOG_FILE_COMPRESS", "maybe")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, defaultLogLevel, cfg.Env.LogLevel)
	assert.Equal(t, defaultThrottleRPS, cfg.Env.ThrottleRPS)
	assert.Equal(t, defaultLogFileMaxBackups, cfg.Env.LogFileMaxBackups)
	assert.Empty(t, cfg.Env.AppTimezone)
	assert.Equal(t, defaultLogFileCompress, cfg.Env.LogFileCompress)
	assert.Len(t, cfg.warnings, 5)
}
