package observability

import (
	"context"
	"errors"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "formflow"

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	OracleCalls     *prometheus.CounterVec
	OracleDuration  *prometheus.HistogramVec
	Resolutions     *prometheus.CounterVec
	PromptsRejected *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_calls_total",
				Help:      "Total number of oracle calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		OracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_call_duration_seconds",
				Help:      "Duration of oracle calls",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"op"},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of transition resolutions by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		PromptsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompts_rejected_total",
				Help:      "Total number of submitted prompts that matched no authored prompt",
			},
			[]string{"form_id"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.OracleCalls, m.OracleDuration, m.Resolutions, m.PromptsRejected, m.RateLimited)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOracleCall: func(_ context.Context, e *domain.OracleEvent) {
			m.OracleCalls.WithLabelValues(e.Op, outcome(e.Err)).Inc()
			m.OracleDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
		OnResolve: func(_ context.Context, e *domain.ResolveEvent) {
			m.Resolutions.WithLabelValues(string(e.Strategy), outcome(e.Err)).Inc()
		},
		OnPromptRejected: func(_ context.Context, e *domain.GuardEvent) {
			m.PromptsRejected.WithLabelValues(e.FormID).Inc()
		},
		OnRateLimited: func(_ context.Context, e *domain.RateLimitEvent) {
			m.RateLimited.WithLabelValues(e.Limiter).Inc()
		},
	}
}

// outcome buckets an error into a low-cardinality label.
func outcome(err error) string {
	var oe *domain.OracleError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &oe) && oe.Timeout:
		return "timeout"
	case errors.Is(err, domain.ErrResolution):
		return "unresolved"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrInvalidPrompt):
		return "invalid_prompt"
	default:
		return "error"
	}
}
