package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		EnvAddr:          ":9090",
		EnvStore:         "Redis",
		EnvRedisAddr:     "cache:6379",
		EnvRedisDB:       "2",
		EnvOracleTimeout: "5s",
		EnvEvaluateLimit: "0",
		EnvGenerateLimit: "7",
		EnvRateWindow:    "30s",
		EnvRateMaxKeys:   "500",
		EnvLogLevel:      "debug",
		EnvLogFormat:     "JSON",
		EnvDefaultModel:  " mistral ",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 0, cfg.EvaluateLimit)
	assert.Equal(t, 7, cfg.GenerateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, 500, cfg.RateMaxKeys)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mistral", cfg.DefaultModel)
}

func TestFromEnv_Invalid(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		EnvStore:         "postgres",
		EnvOracleTimeout: "soon",
		EnvEvaluateLimit: "-1",
		EnvLogLevel:      "loud",
		EnvLogFormat:     "xml",
	}))
	require.Error(t, err)
	for _, key := range []string{EnvStore, EnvOracleTimeout, EnvEvaluateLimit, EnvLogLevel, EnvLogFormat} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FORMFLOW_ADDR=:7070\nFORMFLOW_GENERATE_LIMIT=3\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(EnvGenerateLimit, "9")
	// godotenv.Load sets variables for the process; clear what the file adds.
	t.Setenv(EnvAddr, "")
	require.NoError(t, os.Unsetenv(EnvAddr))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 9, cfg.GenerateLimit)
}
