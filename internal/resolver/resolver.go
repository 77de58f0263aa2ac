// Package resolver decides which question follows the current one.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/formflow/internal/evaluator"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/oracle"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Request identifies the question being left and the answers given so far.
type Request struct {
	FormID        string
	QuestionID    string
	AnswerContext string
	ClientAddr    string
}

// Resolver applies a question's transition strategy. It fails closed: any
// error leaves the flow on the current question and no next id is returned.
type Resolver struct {
	store     ports.FormStore
	evaluator *evaluator.Evaluator
	caller    *oracle.Caller
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLifecycleHooks registers the OnResolve hook.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Resolver) {
		r.hooks = hooks
	}
}

// New creates a resolver. caller serves model-directed choices and should
// share the evaluate rate limit with ev.
func New(store ports.FormStore, ev *evaluator.Evaluator, caller *oracle.Caller, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		evaluator: ev,
		caller:    caller,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveNext fetches the current form and resolves the transition out of
// req.QuestionID. An empty id means the form is finished.
func (r *Resolver) ResolveNext(ctx context.Context, req Request) (string, error) {
	form, err := r.store.Get(ctx, req.FormID)
	if err != nil {
		return "", fmt.Errorf("resolve: load form %s: %w", req.FormID, err)
	}
	return r.Resolve(ctx, form, req)
}

// Resolve resolves the transition out of req.QuestionID in form.
func (r *Resolver) Resolve(ctx context.Context, form *domain.Form, req Request) (next string, err error) {
	q, ok := form.Question(req.QuestionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, req.QuestionID)
	}

	start := time.Now()
	defer func() {
		r.observe(ctx, form.ID, q, next, err, start)
	}()

	in := evaluator.Input{
		FormID:        form.ID,
		AnswerContext: req.AnswerContext,
		ClientAddr:    req.ClientAddr,
	}

	switch s := q.Transition.(type) {
	case nil:
		return "", nil
	case domain.Static:
		return s.NextQuestionID, nil
	case domain.ModelDirected:
		if err := domain.CheckContext(req.AnswerContext); err != nil {
			return "", err
		}
		return r.modelDirected(ctx, form, q, s, in)
	case domain.RuleBased:
		return r.ruleBased(ctx, s, in)
	default:
		return "", domain.NewValidationError(domain.IssueUnknownVariant, q.ID, fmt.Sprintf("unknown transition variant %T", s))
	}
}

func (r *Resolver) ruleBased(ctx context.Context, s domain.RuleBased, in evaluator.Input) (string, error) {
	for i, route := range s.Routes {
		ok, err := r.evaluator.Evaluate(ctx, route.Condition, in)
		if err != nil {
			return "", fmt.Errorf("route %d: %w", i, err)
		}
		if ok {
			return route.NextQuestionID, nil
		}
	}
	return s.FallbackNextQuestionID, nil
}

func (r *Resolver) modelDirected(ctx context.Context, form *domain.Form, q *domain.Question, s domain.ModelDirected, in evaluator.Input) (string, error) {
	candidates := Candidates(form, q.ID)

	model := s.Model
	if model == "" {
		model = domain.DefaultModel
	}

	reply, err := r.caller.Do(ctx, oracle.Call{
		FormID:     form.ID,
		Op:         oracle.OpModelDirected,
		ClientAddr: in.ClientAddr,
		Request: ports.OracleRequest{
			Instruction: Instruction(s.InstructionPrompt, candidates),
			Input:       in.AnswerContext,
			Model:       model,
			Temperature: s.Temperature,
		},
	})
	if err != nil {
		return "", err
	}

	choice := ParseChoice(reply)
	for _, c := range candidates {
		if choice == c {
			if c == domain.EndCandidate {
				return "", nil
			}
			return c, nil
		}
	}
	return "", &domain.ResolutionError{
		QuestionID: q.ID,
		Choice:     evaluator.Abbrev(reply, 64),
		Reason:     "oracle chose an id outside the candidate set",
	}
}

// Candidates returns every other question id in form order, followed by the
// end-of-form token.
func Candidates(form *domain.Form, current string) []string {
	out := make([]string, 0, len(form.Questions))
	for _, q := range form.Questions {
		if q.ID != current {
			out = append(out, q.ID)
		}
	}
	return append(out, domain.EndCandidate)
}

// Instruction builds the model-directed instruction listing the candidates.
func Instruction(prompt string, candidates []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nChoose the next question from these candidate ids:\n")
	for _, c := range candidates {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Choose %q to finish the form.\n", domain.EndCandidate)
	b.WriteString("Respond with exactly one candidate id and nothing else.")
	return b.String()
}

// ParseChoice strips whitespace, quotes, backticks and trailing punctuation
// from a model-directed reply. It never guesses: the result must still match
// a candidate exactly.
func ParseChoice(reply string) string {
	return strings.Trim(reply, " \t\r\n\"'`*.!,;:")
}

func (r *Resolver) observe(ctx context.Context, formID string, q *domain.Question, next string, err error, start time.Time) {
	var kind domain.StrategyKind
	if q.Transition != nil {
		kind = q.Transition.Kind()
	}

	if err != nil {
		r.logger.DebugContext(ctx, "Resolution failed", "form_id", formID, "question_id", q.ID, "strategy", kind, "error", err)
	} else {
		r.logger.DebugContext(ctx, "Resolved transition", "form_id", formID, "question_id", q.ID, "strategy", kind, "next", next, "duration", time.Since(start))
	}

	if r.hooks.OnResolve != nil {
		r.hooks.OnResolve(ctx, &domain.ResolveEvent{
			EventBase: domain.EventBase{
				Timestamp: start,
				Type:      domain.EventResolve,
				FormID:    formID,
			},
			QuestionID: q.ID,
			Strategy:   kind,
			NextID:     next,
			Err:        err,
		})
	}
}
