package formflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formflow/internal/canvas"
	"github.com/aretw0/formflow/internal/evaluator"
	"github.com/aretw0/formflow/internal/generator"
	"github.com/aretw0/formflow/internal/guard"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/oracle"
	"github.com/aretw0/formflow/internal/ratelimit"
	"github.com/aretw0/formflow/internal/resolver"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Limiter admits or rejects one oracle-invoking request for a client key.
// A rejection must be a *domain.RateLimitError.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// NewLimiter creates a fixed-window limiter admitting limit requests per
// client key and window, counted in store. A window of zero or less is
// replaced by one minute.
func NewLimiter(name string, limit int, window time.Duration, store ports.CounterStore) Limiter {
	return ratelimit.New(name, limit, window, store)
}

// Limiter names used for metrics and counter keys.
const (
	LimiterEvaluate = "evaluate"
	LimiterGenerate = "generate"
)

// Engine is the high-level entry point for the formflow library.
// It resolves transitions, evaluates and generates through the oracle behind
// the prompt guard, and projects forms to and from the editor canvas.
type Engine struct {
	store   ports.FormStore
	oracle  ports.Oracle
	clock   ports.Clock
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	timeout time.Duration

	evaluateLimiter Limiter
	generateLimiter Limiter

	guard     *guard.Guard
	evaluator *evaluator.Evaluator
	resolver  *resolver.Resolver
	generator *generator.Generator
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithOracleTimeout bounds every oracle call (default 30s). Zero disables
// the deadline.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithEvaluateLimiter rate-limits predicate and model-directed oracle calls.
func WithEvaluateLimiter(l Limiter) Option {
	return func(e *Engine) {
		e.evaluateLimiter = l
	}
}

// WithGenerateLimiter rate-limits content generation.
func WithGenerateLimiter(l Limiter) Option {
	return func(e *Engine) {
		e.generateLimiter = l
	}
}

// WithClock sets the clock used to stamp saved forms.
func WithClock(c ports.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New initializes an Engine over store and o.
func New(store ports.FormStore, o ports.Oracle, opts ...Option) *Engine {
	eng := &Engine{
		store:   store,
		oracle:  o,
		clock:   ports.SystemClock{},
		timeout: oracle.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.guard = guard.New(store,
		guard.WithLogger(eng.logger),
		guard.WithLifecycleHooks(eng.hooks),
	)
	evaluateCaller := eng.caller(eng.evaluateLimiter)
	generateCaller := eng.caller(eng.generateLimiter)

	eng.evaluator = evaluator.New(eng.guard, evaluateCaller)
	eng.resolver = resolver.New(store, eng.evaluator, evaluateCaller,
		resolver.WithLogger(eng.logger),
		resolver.WithLifecycleHooks(eng.hooks),
	)
	eng.generator = generator.New(eng.guard, generateCaller)
	return eng
}

func (e *Engine) caller(l Limiter) *oracle.Caller {
	opts := []oracle.Option{
		oracle.WithTimeout(e.timeout),
		oracle.WithLifecycleHooks(e.hooks),
		oracle.WithLogger(e.logger),
	}
	if l != nil {
		opts = append(opts, oracle.WithLimiter(l))
	}
	return oracle.NewCaller(e.oracle, opts...)
}

// ResolveRequest asks for the question after QuestionID.
type ResolveRequest struct {
	FormID     string
	QuestionID string
	Context    string
	ClientAddr string
}

// ResolveNext returns the id of the next question, or "" when the form ends.
// On any error the flow stays on the current question.
func (e *Engine) ResolveNext(ctx context.Context, req ResolveRequest) (string, error) {
	return e.resolver.ResolveNext(ctx, resolver.Request{
		FormID:        req.FormID,
		QuestionID:    req.QuestionID,
		AnswerContext: req.Context,
		ClientAddr:    req.ClientAddr,
	})
}

// EvaluateRequest asks for the verdict of one authored predicate.
// Model and Temperature, when set, override the authored values.
type EvaluateRequest struct {
	FormID      string
	Prompt      string
	Context     string
	Model       *string
	Temperature *float64
	ClientAddr  string
}

// Verdict is the oracle's answer to a predicate.
type Verdict struct {
	Text  string `json:"verdictText"`
	Value bool   `json:"value"`
}

// EvaluateCondition evaluates a single predicate prompt against the context.
func (e *Engine) EvaluateCondition(ctx context.Context, req EvaluateRequest) (*Verdict, error) {
	v, err := e.evaluator.EvaluatePrompt(ctx, req.Prompt, req.Model, req.Temperature, evaluator.Input{
		FormID:        req.FormID,
		AnswerContext: req.Context,
		ClientAddr:    req.ClientAddr,
	})
	if err != nil {
		return nil, err
	}
	return &Verdict{Text: v.Text, Value: v.Value}, nil
}

// GenerateRequest asks for the content of an informational question.
type GenerateRequest struct {
	FormID     string
	Prompt     string
	Context    string
	ClientAddr string
}

// Content is generated question content.
type Content struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"content"`
}

// GenerateContent runs an authored generation prompt against the context.
func (e *Engine) GenerateContent(ctx context.Context, req GenerateRequest) (*Content, error) {
	c, err := e.generator.Generate(ctx, generator.Request{
		FormID:        req.FormID,
		Prompt:        req.Prompt,
		AnswerContext: req.Context,
		ClientAddr:    req.ClientAddr,
	})
	if err != nil {
		return nil, err
	}
	return &Content{QuestionID: c.QuestionID, Text: c.Text}, nil
}

// ToCanvas projects form to the editor canvas.
func (e *Engine) ToCanvas(form *domain.Form) *domain.Canvas {
	return canvas.ToCanvas(form)
}

// FromCanvas applies editor nodes and edges to a copy of form.
func (e *Engine) FromCanvas(form *domain.Form, nodes []domain.CanvasNode, edges []domain.CanvasEdge, viewport *domain.Viewport) (*domain.Form, error) {
	return canvas.FromCanvas(form, nodes, edges, viewport)
}

// Canvas fetches a form and projects it.
func (e *Engine) Canvas(ctx context.Context, formID string) (*domain.Canvas, error) {
	form, err := e.Form(ctx, formID)
	if err != nil {
		return nil, err
	}
	return canvas.ToCanvas(form), nil
}

// SaveCanvas applies an editor save to the stored form and persists it.
// Concurrent saves are last-write-wins.
func (e *Engine) SaveCanvas(ctx context.Context, formID string, nodes []domain.CanvasNode, edges []domain.CanvasEdge, viewport *domain.Viewport) (*domain.Form, error) {
	form, err := e.Form(ctx, formID)
	if err != nil {
		return nil, err
	}
	updated, err := canvas.FromCanvas(form, nodes, edges, viewport)
	if err != nil {
		return nil, err
	}
	if err := e.put(ctx, updated); err != nil {
		return nil, err
	}
	e.logger.Debug("canvas saved", "form_id", formID, "nodes", len(nodes), "edges", len(edges))
	return updated, nil
}

// Validate reports every structural defect of form.
func (e *Engine) Validate(form *domain.Form) error {
	return domain.Validate(form)
}

// Form fetches a form from the store.
func (e *Engine) Form(ctx context.Context, formID string) (*domain.Form, error) {
	form, err := e.store.Get(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form %q: %w", formID, err)
	}
	return form, nil
}

// Forms lists the ids of all stored forms.
func (e *Engine) Forms(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// SaveForm validates and stores form. CreatedAt is kept from the stored copy
// when one exists.
func (e *Engine) SaveForm(ctx context.Context, form *domain.Form) (*domain.Form, error) {
	f := form.Clone()
	if f.Viewport == (domain.Viewport{}) {
		f.Viewport = domain.DefaultViewport
	}
	if existing, err := e.store.Get(ctx, f.ID); err == nil {
		f.CreatedAt = existing.CreatedAt
	} else if f.CreatedAt.IsZero() {
		f.CreatedAt = e.clock.Now().UTC()
	}
	if err := e.put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteForm removes a form.
func (e *Engine) DeleteForm(ctx context.Context, formID string) error {
	return e.store.Delete(ctx, formID)
}

// DeleteQuestion removes a question from a stored form according to policy.
// The returned issues describe references rewritten by DetachReferences.
func (e *Engine) DeleteQuestion(ctx context.Context, formID, questionID string, policy domain.DeletePolicy) (*domain.Form, []domain.Issue, error) {
	form, err := e.Form(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	updated, warnings, err := domain.RemoveQuestion(form, questionID, policy)
	if err != nil {
		return nil, nil, err
	}
	if err := e.put(ctx, updated); err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		e.logger.Warn("reference detached", "form_id", formID, "question_id", w.QuestionID, "detail", w.Message)
	}
	return updated, warnings, nil
}

func (e *Engine) put(ctx context.Context, f *domain.Form) error {
	if err := domain.Validate(f); err != nil {
		return err
	}
	f.UpdatedAt = e.clock.Now().UTC()
	if err := e.store.Save(ctx, f); err != nil {
		return fmt.Errorf("failed to save form %q: %w", f.ID, err)
	}
	return nil
}
