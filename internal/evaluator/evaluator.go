// Package evaluator evaluates condition trees whose leaves are natural
// language predicates answered by the oracle.
package evaluator

import (
	"context"
	"fmt"

	"github.com/aretw0/formflow/internal/guard"
	"github.com/aretw0/formflow/internal/oracle"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Input is the runtime data a condition is evaluated against.
type Input struct {
	FormID        string
	AnswerContext string
	ClientAddr    string
}

// Verdict is the oracle's answer to one predicate.
type Verdict struct {
	Text  string
	Value bool
}

// Evaluator walks condition trees. Combinators short-circuit: once the result
// of an And or Or is known, remaining siblings are never evaluated and make
// no oracle calls.
type Evaluator struct {
	guard  *guard.Guard
	caller *oracle.Caller
}

// New creates an evaluator. Every predicate leaf passes through g before
// caller reaches the oracle.
func New(g *guard.Guard, caller *oracle.Caller) *Evaluator {
	return &Evaluator{guard: g, caller: caller}
}

// Evaluate returns the truth value of cond. The first leaf failure aborts the
// whole evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, cond domain.Condition, in Input) (bool, error) {
	if err := domain.CheckContext(in.AnswerContext); err != nil {
		return false, err
	}
	return e.eval(ctx, cond, in)
}

func (e *Evaluator) eval(ctx context.Context, cond domain.Condition, in Input) (bool, error) {
	switch c := cond.(type) {
	case domain.Predicate:
		// A stored leaf carries its own settings; identically worded
		// prompts elsewhere in the form must not leak theirs.
		model := c.Model
		if model == "" {
			model = domain.DefaultModel
		}
		v, err := e.predicate(ctx, c.EvaluationPrompt, &model, &c.Temperature, in)
		if err != nil {
			return false, err
		}
		return v.Value, nil

	case domain.And:
		for _, sub := range c.Conditions {
			ok, err := e.eval(ctx, sub, in)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case domain.Or:
		for _, sub := range c.Conditions {
			ok, err := e.eval(ctx, sub, in)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case domain.Not:
		ok, err := e.eval(ctx, c.Condition, in)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case nil:
		return false, domain.NewValidationError(domain.IssueMissingCondition, "", "condition is missing")

	default:
		return false, domain.NewValidationError(domain.IssueUnknownVariant, "", fmt.Sprintf("unknown condition variant %T", cond))
	}
}

// EvaluatePrompt evaluates a single submitted predicate prompt. The prompt must
// match one authored in the stored form; model and temperature, when non-nil,
// override the authored values.
func (e *Evaluator) EvaluatePrompt(ctx context.Context, prompt string, model *string, temperature *float64, in Input) (*Verdict, error) {
	if err := domain.CheckContext(in.AnswerContext); err != nil {
		return nil, err
	}
	return e.predicate(ctx, prompt, model, temperature, in)
}

func (e *Evaluator) predicate(ctx context.Context, prompt string, model *string, temperature *float64, in Input) (*Verdict, error) {
	authored, err := e.guard.Check(ctx, in.FormID, prompt)
	if err != nil {
		return nil, err
	}

	req := ports.OracleRequest{
		Instruction: authored.Text + "\n\n" + VerdictInstruction,
		Input:       in.AnswerContext,
		Model:       authored.Model,
		Temperature: authored.Temperature,
	}
	if model != nil && *model != "" {
		req.Model = *model
	}
	if temperature != nil {
		req.Temperature = *temperature
	}
	if req.Model == "" {
		req.Model = domain.DefaultModel
	}

	reply, err := e.caller.Do(ctx, oracle.Call{
		FormID:     in.FormID,
		Op:         oracle.OpPredicate,
		ClientAddr: in.ClientAddr,
		Request:    req,
	})
	if err != nil {
		return nil, err
	}

	value, err := ParseVerdict(reply)
	if err != nil {
		return nil, &domain.OracleError{Op: oracle.OpPredicate, Err: err}
	}
	return &Verdict{Text: reply, Value: value}, nil
}
