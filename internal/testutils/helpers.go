package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/dsl"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/stretchr/testify/require"
)

// BudgetPrompt is the predicate of the budget scenario form.
const BudgetPrompt = "The answer mentions a budget over $5k"

// BudgetForm builds the scenario form: q1 static to q2, q2 routes to q3 when
// BudgetPrompt holds and falls back to q4.
// It fails the test immediately on error.
func BudgetForm(t *testing.T) *domain.Form {
	t.Helper()

	b := dsl.New("Budget").ID("budget")
	b.Add("q1").ShortAnswer("What are you saving for?").Go("q2")
	b.Add("q2").LongAnswer("Tell us about your savings.").
		When(dsl.Ask(BudgetPrompt), "q3").
		Otherwise("q4")
	b.Add("q3").Info("Premium track.").End()
	b.Add("q4").Info("Basic track.").End()

	form, err := b.Build()
	require.NoError(t, err, "Failed to build budget form")
	return form
}

// ScriptedOracle answers each call with the reply registered for the first
// prompt the instruction starts with. It records every request.
// Safe for concurrent use.
type ScriptedOracle struct {
	mu       sync.Mutex
	replies  map[string]string
	order    []string
	fallback func(req ports.OracleRequest) (string, error)
	requests []ports.OracleRequest
}

// NewScriptedOracle creates an oracle with no replies registered.
func NewScriptedOracle() *ScriptedOracle {
	return &ScriptedOracle{replies: make(map[string]string)}
}

// On registers the reply for instructions starting with prompt.
func (o *ScriptedOracle) On(prompt, reply string) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.replies[prompt]; !ok {
		o.order = append(o.order, prompt)
	}
	o.replies[prompt] = reply
	return o
}

// Otherwise handles calls no registered prompt matches.
func (o *ScriptedOracle) Otherwise(fn func(req ports.OracleRequest) (string, error)) *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallback = fn
	return o
}

// Call implements ports.Oracle.
func (o *ScriptedOracle) Call(ctx context.Context, req ports.OracleRequest) (string, error) {
	o.mu.Lock()
	o.requests = append(o.requests, req)
	fallback := o.fallback
	for _, prompt := range o.order {
		if strings.HasPrefix(req.Instruction, prompt) {
			reply := o.replies[prompt]
			o.mu.Unlock()
			return reply, nil
		}
	}
	o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fallback != nil {
		return fallback(req)
	}
	return "", fmt.Errorf("no scripted reply for %q", req.Instruction)
}

// Calls returns the number of calls made.
func (o *ScriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.requests)
}

// CallsFor returns the number of calls whose instruction starts with prompt.
func (o *ScriptedOracle) CallsFor(prompt string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, r := range o.requests {
		if strings.HasPrefix(r.Instruction, prompt) {
			n++
		}
	}
	return n
}

// Requests returns a copy of every recorded request.
func (o *ScriptedOracle) Requests() []ports.OracleRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ports.OracleRequest, len(o.requests))
	copy(out, o.requests)
	return out
}
