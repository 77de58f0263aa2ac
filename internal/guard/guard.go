// Package guard binds prompt text submitted at runtime to the copy authored in
// the stored form, so a client cannot substitute its own oracle instruction.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// PrefixLength is the number of runes of a rejected prompt that may be logged.
const PrefixLength = 32

// Source tells where an authored prompt lives in the form.
type Source string

const (
	SourcePredicate  Source = "predicate"
	SourceGeneration Source = "generation"
)

// Prompt is the authored copy of a matched prompt. Callers must send Text to
// the oracle, never the submitted string.
type Prompt struct {
	Text        string
	QuestionID  string
	Source      Source
	Model       string
	Temperature float64
}

// Guard verifies submitted prompts against the current stored form.
type Guard struct {
	store  ports.FormStore
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger used for security events.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithLifecycleHooks registers the OnPromptRejected hook.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Guard) {
		g.hooks = hooks
	}
}

// New creates a guard reading forms from store.
func New(store ports.FormStore, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check fetches the form and returns the authored prompt whose trimmed text
// equals the trimmed submitted text. Generation prompts and every predicate
// leaf, including those nested in combinators, are candidates.
// A mismatch returns an error wrapping domain.ErrInvalidPrompt.
func (g *Guard) Check(ctx context.Context, formID, submitted string) (*Prompt, error) {
	if err := domain.CheckPrompt(submitted); err != nil {
		return nil, err
	}

	form, err := g.store.Get(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("guard: load form %s: %w", formID, err)
	}

	want := strings.TrimSpace(submitted)
	if want != "" {
		if p := find(form, want); p != nil {
			return p, nil
		}
	}

	g.reject(ctx, formID, submitted)
	return nil, fmt.Errorf("%w: prompt does not match any prompt authored in form %s", domain.ErrInvalidPrompt, formID)
}

// Prompts lists every authored prompt of the form in question order.
func Prompts(form *domain.Form) []Prompt {
	var out []Prompt
	walk(form, func(p Prompt) bool {
		out = append(out, p)
		return true
	})
	return out
}

func find(form *domain.Form, want string) *Prompt {
	var found *Prompt
	walk(form, func(p Prompt) bool {
		if strings.TrimSpace(p.Text) == want {
			found = &p
			return false
		}
		return true
	})
	return found
}

func walk(form *domain.Form, fn func(Prompt) bool) {
	for i := range form.Questions {
		q := &form.Questions[i]
		if gen, ok := q.GenerationPrompt(); ok {
			if !fn(Prompt{
				Text:        gen.Prompt,
				QuestionID:  q.ID,
				Source:      SourceGeneration,
				Model:       gen.Model,
				Temperature: gen.Temperature,
			}) {
				return
			}
		}
		rb, ok := q.Transition.(domain.RuleBased)
		if !ok {
			continue
		}
		for _, r := range rb.Routes {
			more := domain.WalkPredicates(r.Condition, func(p domain.Predicate) bool {
				return fn(Prompt{
					Text:        p.EvaluationPrompt,
					QuestionID:  q.ID,
					Source:      SourcePredicate,
					Model:       p.Model,
					Temperature: p.Temperature,
				})
			})
			if !more {
				return
			}
		}
	}
}

func (g *Guard) reject(ctx context.Context, formID, submitted string) {
	prefix := Prefix(submitted, PrefixLength)
	n := utf8.RuneCountInString(submitted)

	g.logger.WarnContext(ctx, "Rejected prompt that does not match the stored form",
		"event", "security.invalid_prompt",
		"form_id", formID,
		"prompt_prefix", prefix,
		"prompt_len", n,
	)

	if g.hooks.OnPromptRejected != nil {
		g.hooks.OnPromptRejected(ctx, &domain.GuardEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventPromptRejected,
				FormID:    formID,
			},
			PromptPrefix: prefix,
			PromptLength: n,
		})
	}
}

// Prefix returns at most n runes of s.
func Prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
