// Package config loads runtime settings from FORMFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Environment variables.
const (
	EnvAddr           = "FORMFLOW_ADDR"
	EnvStore          = "FORMFLOW_STORE"
	EnvFormsDir       = "FORMFLOW_FORMS_DIR"
	EnvRedisAddr      = "FORMFLOW_REDIS_ADDR"
	EnvRedisPassword  = "FORMFLOW_REDIS_PASSWORD"
	EnvRedisDB        = "FORMFLOW_REDIS_DB"
	EnvOllamaURL      = "FORMFLOW_OLLAMA_URL"
	EnvDefaultModel   = "FORMFLOW_DEFAULT_MODEL"
	EnvOracleTimeout  = "FORMFLOW_ORACLE_TIMEOUT"
	EnvEvaluateLimit  = "FORMFLOW_EVALUATE_LIMIT"
	EnvGenerateLimit  = "FORMFLOW_GENERATE_LIMIT"
	EnvRateWindow     = "FORMFLOW_RATE_WINDOW"
	EnvRateMaxKeys    = "FORMFLOW_RATE_MAX_KEYS"
	EnvLogLevel       = "FORMFLOW_LOG_LEVEL"
	EnvLogFormat      = "FORMFLOW_LOG_FORMAT"
	EnvDotEnvDisabled = "FORMFLOW_NO_DOTENV"
)

// Config holds the settings shared by the server, MCP and CLI commands.
type Config struct {
	Addr          string
	Store         string
	FormsDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OllamaURL     string
	DefaultModel  string
	OracleTimeout time.Duration
	EvaluateLimit int
	GenerateLimit int
	RateWindow    time.Duration
	RateMaxKeys   int
	LogLevel      slog.Level
	LogFormat     string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:          ":8080",
		Store:         StoreMemory,
		FormsDir:      "forms",
		RedisAddr:     "localhost:6379",
		OllamaURL:     "http://localhost:11434",
		DefaultModel:  "llama3",
		OracleTimeout: 30 * time.Second,
		EvaluateLimit: 50,
		GenerateLimit: 100,
		RateWindow:    time.Minute,
		RateMaxKeys:   10000,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
	}
}

// Load reads a .env file from the working directory, when present, and then
// overlays the environment on Default. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if os.Getenv(EnvDotEnvDisabled) == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv overlays the variables returned by getenv on Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int, min int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < min {
			errs = append(errs, fmt.Errorf("%s: invalid value %q", key, v))
			return
		}
		*dst = n
	}
	dur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return
		}
		*dst = d
	}

	str(EnvAddr, &cfg.Addr)
	str(EnvStore, &cfg.Store)
	str(EnvFormsDir, &cfg.FormsDir)
	str(EnvRedisAddr, &cfg.RedisAddr)
	str(EnvRedisPassword, &cfg.RedisPassword)
	num(EnvRedisDB, &cfg.RedisDB, 0)
	str(EnvOllamaURL, &cfg.OllamaURL)
	str(EnvDefaultModel, &cfg.DefaultModel)
	dur(EnvOracleTimeout, &cfg.OracleTimeout)
	// Zero disables a limiter.
	num(EnvEvaluateLimit, &cfg.EvaluateLimit, 0)
	num(EnvGenerateLimit, &cfg.GenerateLimit, 0)
	dur(EnvRateWindow, &cfg.RateWindow)
	num(EnvRateMaxKeys, &cfg.RateMaxKeys, 1)

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		}
	}

	str(EnvLogFormat, &cfg.LogFormat)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%s: unknown format %q", EnvLogFormat, cfg.LogFormat))
	}

	cfg.Store = strings.ToLower(cfg.Store)
	switch cfg.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown store %q", EnvStore, cfg.Store))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
