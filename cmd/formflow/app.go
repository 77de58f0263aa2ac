package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/config"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/adapters/file"
	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/adapters/ollama"
	"github.com/aretw0/formflow/pkg/adapters/redis"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/observability"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	engine   *formflow.Engine
	registry *prometheus.Registry
	closers  []func() error
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("store"); v != "" {
		switch v {
		case config.StoreMemory, config.StoreFile, config.StoreRedis:
			cfg.Store = v
		default:
			return config.Config{}, fmt.Errorf("unknown store %q", v)
		}
	}
	if v, _ := flags.GetString("dir"); v != "" {
		cfg.FormsDir = v
		if !flags.Changed("store") {
			cfg.Store = config.StoreFile
		}
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return config.Config{}, fmt.Errorf("log-level: %w", err)
		}
	}
	return cfg, nil
}

// newApp wires stores, the oracle, limiters and metrics into an engine.
// Seed forms replace the configured form store with a memory store holding
// only them.
func newApp(cmd *cobra.Command, seed ...*domain.Form) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logging.New(cfg.LogLevel, logging.WithFormat(cfg.LogFormat)),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		store    ports.FormStore
		counters ports.CounterStore = memory.NewCounterStore(cfg.RateWindow, memory.WithMaxKeys(cfg.RateMaxKeys))
	)
	if cfg.Store == config.StoreRedis {
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		rs := redis.NewFromClient(client)
		store = rs
		counters = redis.NewCounterStore(client)
		a.closers = append(a.closers, rs.Close)
	}
	switch {
	case len(seed) > 0:
		store = memory.NewStore(seed...)
	case cfg.Store == config.StoreFile:
		store = file.New(cfg.FormsDir)
	case store == nil:
		store = memory.NewStore()
	}

	metrics := observability.NewMetrics(a.registry)
	opts := []formflow.Option{
		formflow.WithLogger(a.logger),
		formflow.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(a.logger))),
		formflow.WithOracleTimeout(cfg.OracleTimeout),
	}
	if cfg.EvaluateLimit > 0 {
		opts = append(opts, formflow.WithEvaluateLimiter(
			formflow.NewLimiter(formflow.LimiterEvaluate, cfg.EvaluateLimit, cfg.RateWindow, counters)))
	}
	if cfg.GenerateLimit > 0 {
		opts = append(opts, formflow.WithGenerateLimiter(
			formflow.NewLimiter(formflow.LimiterGenerate, cfg.GenerateLimit, cfg.RateWindow, counters)))
	}

	oracle := ollama.New(cfg.OllamaURL,
		ollama.WithDefaultModel(cfg.DefaultModel),
	)
	a.engine = formflow.New(store, oracle, opts...)

	a.logger.Debug("engine ready",
		"store", cfg.Store,
		"ollama", cfg.OllamaURL,
		"oracle_timeout", cfg.OracleTimeout.String(),
		"rate_window", cfg.RateWindow.String(),
	)
	return a, nil
}

// Close releases the backends opened by newApp.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// shutdownTimeout bounds graceful shutdown of the network servers.
const shutdownTimeout = 5 * time.Second
