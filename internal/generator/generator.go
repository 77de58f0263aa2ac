// Package generator produces informational content from authored generation
// prompts.
package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/formflow/internal/guard"
	"github.com/aretw0/formflow/internal/oracle"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
)

// Request asks for content generated from a submitted prompt.
type Request struct {
	FormID        string
	Prompt        string
	AnswerContext string
	ClientAddr    string
}

// Content is a generated block together with the question it belongs to.
type Content struct {
	QuestionID string
	Text       string
}

// Generator runs guarded generation calls.
type Generator struct {
	guard  *guard.Guard
	caller *oracle.Caller
}

// New creates a generator. caller should carry the generate rate limit.
func New(g *guard.Guard, caller *oracle.Caller) *Generator {
	return &Generator{guard: g, caller: caller}
}

// Generate sends the authored copy of req.Prompt to the oracle with the
// answer context as input.
func (g *Generator) Generate(ctx context.Context, req Request) (*Content, error) {
	if err := domain.CheckContext(req.AnswerContext); err != nil {
		return nil, err
	}

	authored, err := g.guard.Check(ctx, req.FormID, req.Prompt)
	if err != nil {
		return nil, err
	}

	model := authored.Model
	if model == "" {
		model = domain.DefaultModel
	}

	out, err := g.caller.Do(ctx, oracle.Call{
		FormID:     req.FormID,
		Op:         oracle.OpGenerate,
		ClientAddr: req.ClientAddr,
		Request: ports.OracleRequest{
			Instruction: authored.Text,
			Input:       req.AnswerContext,
			Model:       model,
			Temperature: authored.Temperature,
		},
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(out)
	if text == "" {
		return nil, &domain.OracleError{Op: oracle.OpGenerate, Err: errors.New("empty content")}
	}
	return &Content{QuestionID: authored.QuestionID, Text: text}, nil
}
