// Package mcp exposes the engine as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/sanitize"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// DefaultClientKey is the rate-limit key for tool calls. MCP sessions carry
// no network address.
const DefaultClientKey = "mcp"

// Engine defines the operations exposed as tools.
type Engine interface {
	ResolveNext(ctx context.Context, req formflow.ResolveRequest) (string, error)
	EvaluateCondition(ctx context.Context, req formflow.EvaluateRequest) (*formflow.Verdict, error)
	GenerateContent(ctx context.Context, req formflow.GenerateRequest) (*formflow.Content, error)
	Canvas(ctx context.Context, formID string) (*domain.Canvas, error)
	Form(ctx context.Context, formID string) (*domain.Form, error)
}

// Ensure the facade satisfies Engine.
var _ Engine = (*formflow.Engine)(nil)

// ResolveArgs are the arguments of resolve_next.
type ResolveArgs struct {
	FormID     string `mapstructure:"form_id"`
	QuestionID string `mapstructure:"question_id"`
	Context    string `mapstructure:"context"`
}

// ResolveResult is the output of resolve_next.
type ResolveResult struct {
	NextQuestionID *string `json:"nextQuestionId" jsonschema_description:"The next question id, null when the form ends"`
}

// EvaluateArgs are the arguments of evaluate_condition.
type EvaluateArgs struct {
	FormID           string   `mapstructure:"form_id"`
	EvaluationPrompt string   `mapstructure:"evaluation_prompt"`
	Context          string   `mapstructure:"context"`
	Model            *string  `mapstructure:"model"`
	Temperature      *float64 `mapstructure:"temperature"`
}

// EvaluateResult is the output of evaluate_condition.
type EvaluateResult struct {
	VerdictText string `json:"verdictText" jsonschema_description:"The raw oracle reply"`
	Value       bool   `json:"value" jsonschema_description:"The verdict coerced to a boolean"`
}

// GenerateArgs are the arguments of generate_content.
type GenerateArgs struct {
	FormID           string `mapstructure:"form_id"`
	GenerationPrompt string `mapstructure:"generation_prompt"`
	Context          string `mapstructure:"context"`
}

// GenerateResult is the output of generate_content.
type GenerateResult struct {
	QuestionID string `json:"questionId" jsonschema_description:"The question the prompt belongs to"`
	Content    string `json:"content" jsonschema_description:"The generated text"`
}

// ValidateArgs are the arguments of validate_form. Document takes precedence
// over FormID.
type ValidateArgs struct {
	FormID   string `mapstructure:"form_id"`
	Document string `mapstructure:"document"`
}

// ValidateResult is the output of validate_form.
type ValidateResult struct {
	Valid  bool           `json:"valid"`
	Issues []domain.Issue `json:"issues"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	clientKey string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithClientKey sets the rate-limit key used for every call.
func WithClientKey(key string) Option {
	return func(s *Server) {
		s.clientKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		clientKey: DefaultClientKey,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("formflow-mcp", strings.TrimSpace(formflow.Version),
			server.WithToolCapabilities(true),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("resolve_next",
		mcp.WithDescription("Resolve the question that follows the current one for an answer context."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("The form id")),
		mcp.WithString("question_id", mcp.Required(), mcp.Description("The current question id")),
		mcp.WithString("context", mcp.Description("The answers given so far")),
		mcp.WithOutputSchema[ResolveResult](),
	), mcp.NewStructuredToolHandler(s.handleResolve))

	s.mcpServer.AddTool(mcp.NewTool("evaluate_condition",
		mcp.WithDescription("Evaluate a predicate prompt authored in the form against an answer context."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("The form id")),
		mcp.WithString("evaluation_prompt", mcp.Required(), mcp.Description("A predicate prompt exactly as authored in the form")),
		mcp.WithString("context", mcp.Description("The answers given so far")),
		mcp.WithString("model", mcp.Description("Overrides the authored model")),
		mcp.WithNumber("temperature", mcp.Description("Overrides the authored temperature"), mcp.Min(0), mcp.Max(2)),
		mcp.WithOutputSchema[EvaluateResult](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	s.mcpServer.AddTool(mcp.NewTool("generate_content",
		mcp.WithDescription("Generate the content of an informational question from its authored prompt."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("The form id")),
		mcp.WithString("generation_prompt", mcp.Required(), mcp.Description("A generation prompt exactly as authored in the form")),
		mcp.WithString("context", mcp.Description("The answers given so far")),
		mcp.WithOutputSchema[GenerateResult](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Get the editor canvas projection of a form."),
		mcp.WithString("form_id", mcp.Required(), mcp.Description("The form id")),
	), s.handleCanvas)

	s.mcpServer.AddTool(mcp.NewTool("validate_form",
		mcp.WithDescription("Report every structural defect of a stored form or of a JSON/YAML form document."),
		mcp.WithString("form_id", mcp.Description("A stored form id")),
		mcp.WithString("document", mcp.Description("A form document in JSON or YAML")),
		mcp.WithOutputSchema[ValidateResult](),
	), mcp.NewStructuredToolHandler(s.handleValidate))
}

// decodeArgs decodes tool arguments into dst and sanitizes its string fields.
func decodeArgs(args map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func clean(fields map[string]*string) error {
	for name, v := range fields {
		out, err := sanitize.Text(name, *v)
		if err != nil {
			return err
		}
		*v = out
	}
	return nil
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameter: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ResolveResult, error) {
	var in ResolveArgs
	if err := decodeArgs(args, &in); err != nil {
		return ResolveResult{}, err
	}
	if err := required(map[string]string{"form_id": in.FormID, "question_id": in.QuestionID}); err != nil {
		return ResolveResult{}, err
	}
	if err := clean(map[string]*string{"context": &in.Context}); err != nil {
		return ResolveResult{}, err
	}

	next, err := s.engine.ResolveNext(ctx, formflow.ResolveRequest{
		FormID:     in.FormID,
		QuestionID: in.QuestionID,
		Context:    in.Context,
		ClientAddr: s.clientKey,
	})
	if err != nil {
		return ResolveResult{}, s.toolError("resolve_next", err)
	}
	var out ResolveResult
	if next != "" {
		out.NextQuestionID = &next
	}
	return out, nil
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EvaluateResult, error) {
	var in EvaluateArgs
	if err := decodeArgs(args, &in); err != nil {
		return EvaluateResult{}, err
	}
	if err := required(map[string]string{"form_id": in.FormID, "evaluation_prompt": in.EvaluationPrompt}); err != nil {
		return EvaluateResult{}, err
	}
	if err := clean(map[string]*string{"evaluation_prompt": &in.EvaluationPrompt, "context": &in.Context}); err != nil {
		return EvaluateResult{}, err
	}

	v, err := s.engine.EvaluateCondition(ctx, formflow.EvaluateRequest{
		FormID:      in.FormID,
		Prompt:      in.EvaluationPrompt,
		Context:     in.Context,
		Model:       in.Model,
		Temperature: in.Temperature,
		ClientAddr:  s.clientKey,
	})
	if err != nil {
		return EvaluateResult{}, s.toolError("evaluate_condition", err)
	}
	return EvaluateResult{VerdictText: v.Text, Value: v.Value}, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (GenerateResult, error) {
	var in GenerateArgs
	if err := decodeArgs(args, &in); err != nil {
		return GenerateResult{}, err
	}
	if err := required(map[string]string{"form_id": in.FormID, "generation_prompt": in.GenerationPrompt}); err != nil {
		return GenerateResult{}, err
	}
	if err := clean(map[string]*string{"generation_prompt": &in.GenerationPrompt, "context": &in.Context}); err != nil {
		return GenerateResult{}, err
	}

	c, err := s.engine.GenerateContent(ctx, formflow.GenerateRequest{
		FormID:     in.FormID,
		Prompt:     in.GenerationPrompt,
		Context:    in.Context,
		ClientAddr: s.clientKey,
	})
	if err != nil {
		return GenerateResult{}, s.toolError("generate_content", err)
	}
	return GenerateResult{QuestionID: c.QuestionID, Content: c.Text}, nil
}

func (s *Server) handleCanvas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID := request.GetString("form_id", "")
	if formID == "" {
		return mcp.NewToolResultError("Missing required parameter: form_id"), nil
	}
	c, err := s.engine.Canvas(ctx, formID)
	if err != nil {
		return mcp.NewToolResultError(s.toolError("get_canvas", err).Error()), nil
	}
	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode canvas: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ValidateResult, error) {
	var in ValidateArgs
	if err := decodeArgs(args, &in); err != nil {
		return ValidateResult{}, err
	}

	var issues []domain.Issue
	switch {
	case in.Document != "":
		issues = schema.Lint([]byte(in.Document))
	case in.FormID != "":
		form, err := s.engine.Form(ctx, in.FormID)
		if err != nil {
			return ValidateResult{}, s.toolError("validate_form", err)
		}
		issues = domain.Check(form)
	default:
		return ValidateResult{}, errors.New("missing required parameter: form_id or document")
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return ValidateResult{Valid: len(issues) == 0, Issues: issues}, nil
}

// toolError turns an engine error into a message safe to return to the
// client. Rejected prompts are never echoed.
func (s *Server) toolError(tool string, err error) error {
	var rle *domain.RateLimitError
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		return errors.New("invalid prompt: it does not match the form")
	case errors.As(err, &rle):
		return fmt.Errorf("rate limited, retry in %s", rle.RetryAfter.Round(time.Second))
	case errors.Is(err, domain.ErrOracleFailure):
		s.logger.Warn("MCP: oracle failure", "tool", tool, "err", err)
	}
	return err
}
