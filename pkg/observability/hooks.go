package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/formflow/pkg/domain"
)

// Combine returns hooks that call every non-nil hook in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnOracleCall = chain(out.OnOracleCall, s.OnOracleCall)
		out.OnResolve = chain(out.OnResolve, s.OnResolve)
		out.OnPromptRejected = chain(out.OnPromptRejected, s.OnPromptRejected)
		out.OnRateLimited = chain(out.OnRateLimited, s.OnRateLimited)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks returns hooks that log each event at debug level.
// Rejections are already logged at warn by the guard and limiter.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOracleCall: func(ctx context.Context, e *domain.OracleEvent) {
			logger.DebugContext(ctx, "oracle call",
				"form_id", e.FormID,
				"op", e.Op,
				"model", e.Model,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			logger.DebugContext(ctx, "resolve",
				"form_id", e.FormID,
				"question_id", e.QuestionID,
				"strategy", e.Strategy,
				"next_id", e.NextID,
				"err", e.Err,
			)
		},
	}
}
