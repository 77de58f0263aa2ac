// Package oracle wraps a ports.Oracle with the policies every oracle call
// shares: per-client rate limiting, a timeout, error classification and
// lifecycle hooks.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Operation names reported in events and errors.
const (
	OpPredicate     = "predicate"
	OpModelDirected = "model_directed"
	OpGenerate      = "generate"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// Limiter admits or rejects one request for a client key.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Call is one oracle invocation on behalf of a client.
type Call struct {
	FormID     string
	Op         string
	ClientAddr string
	Request    ports.OracleRequest
}

// Caller invokes the oracle. The zero timeout disables the deadline and a nil
// limiter disables rate limiting.
type Caller struct {
	oracle  ports.Oracle
	limiter Limiter
	timeout time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures a Caller.
type Option func(*Caller)

// WithLimiter consults l before every call.
func WithLimiter(l Limiter) Option {
	return func(c *Caller) {
		c.limiter = l
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Caller) {
		c.timeout = d
	}
}

// WithLifecycleHooks registers OnOracleCall and OnRateLimited.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Caller) {
		c.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Caller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCaller wraps o.
func NewCaller(o ports.Oracle, opts ...Option) *Caller {
	c := &Caller{
		oracle:  o,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs one oracle call. It returns a *domain.RateLimitError when the client
// exhausted its quota (the oracle is not called), a *domain.OracleError for
// oracle failures and timeouts (including an expired ctx deadline), and the
// context error when ctx itself was cancelled.
func (c *Caller) Do(ctx context.Context, call Call) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Allow(ctx, call.ClientAddr); err != nil {
			var rle *domain.RateLimitError
			if errors.As(err, &rle) {
				c.rateLimited(ctx, call, rle)
			}
			return "", err
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.oracle.Call(callCtx, call.Request)
	duration := time.Since(start)

	if err != nil {
		err = c.classify(ctx, callCtx, call.Op, err)
	}

	c.logger.DebugContext(ctx, "Oracle call",
		"form_id", call.FormID,
		"op", call.Op,
		"model", call.Request.Model,
		"duration", duration,
		"error", err,
	)
	if c.hooks.OnOracleCall != nil {
		c.hooks.OnOracleCall(ctx, &domain.OracleEvent{
			EventBase: domain.EventBase{
				Timestamp: start,
				Type:      domain.EventOracleCall,
				FormID:    call.FormID,
			},
			Op:       call.Op,
			Model:    call.Request.Model,
			Duration: duration,
			Err:      err,
		})
	}

	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Caller) classify(parent, callCtx context.Context, op string, err error) error {
	// Only a cancelled caller is passed through; an expired caller deadline
	// is still a timeout.
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("oracle %s: %w", op, parent.Err())
	}
	var oe *domain.OracleError
	if errors.As(err, &oe) {
		return err
	}
	if errors.Is(parent.Err(), context.DeadlineExceeded) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &domain.OracleError{Op: op, Timeout: true, Err: err}
	}
	return &domain.OracleError{Op: op, Err: err}
}

func (c *Caller) rateLimited(ctx context.Context, call Call, rle *domain.RateLimitError) {
	c.logger.InfoContext(ctx, "Rate limited oracle call",
		"form_id", call.FormID,
		"limiter", rle.Limiter,
		"client", call.ClientAddr,
		"retry_after", rle.RetryAfter,
	)
	if c.hooks.OnRateLimited != nil {
		c.hooks.OnRateLimited(ctx, &domain.RateLimitEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventRateLimited,
				FormID:    call.FormID,
			},
			Limiter: rle.Limiter,
			Key:     call.ClientAddr,
		})
	}
}
