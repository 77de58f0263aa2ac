// Package http exposes the engine as a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/internal/sanitize"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies. Form documents are the largest payload.
const maxBodyBytes = 4 << 20

// Engine defines the operations the API serves.
type Engine interface {
	ResolveNext(ctx context.Context, req formflow.ResolveRequest) (string, error)
	EvaluateCondition(ctx context.Context, req formflow.EvaluateRequest) (*formflow.Verdict, error)
	GenerateContent(ctx context.Context, req formflow.GenerateRequest) (*formflow.Content, error)
	ToCanvas(form *domain.Form) *domain.Canvas
	Canvas(ctx context.Context, formID string) (*domain.Canvas, error)
	SaveCanvas(ctx context.Context, formID string, nodes []domain.CanvasNode, edges []domain.CanvasEdge, viewport *domain.Viewport) (*domain.Form, error)
	Form(ctx context.Context, formID string) (*domain.Form, error)
	Forms(ctx context.Context) ([]string, error)
	SaveForm(ctx context.Context, form *domain.Form) (*domain.Form, error)
	DeleteForm(ctx context.Context, formID string) error
	DeleteQuestion(ctx context.Context, formID, questionID string, policy domain.DeletePolicy) (*domain.Form, []domain.Issue, error)
}

// Ensure the facade satisfies Engine.
var _ Engine = (*formflow.Engine)(nil)

// Server handles the API routes.
type Server struct {
	Engine   Engine
	logger   *slog.Logger
	validate *validator.Validate
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves the metrics of g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		logger:   logging.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.ListForms)
		r.Post("/", s.CreateForm)
		r.Post("/validate", s.ValidateForm)
		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", s.GetForm)
			r.Put("/", s.PutForm)
			r.Delete("/", s.DeleteForm)
			r.Post("/resolve", s.Resolve)
			r.Post("/evaluate", s.Evaluate)
			r.Post("/generate", s.Generate)
			r.Get("/canvas", s.GetCanvas)
			r.Put("/canvas", s.PutCanvas)
			r.Delete("/questions/{questionID}", s.DeleteQuestion)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>formflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}
	s.respond(w, http.StatusOK, InfoResponse{
		App:        "formflow-http",
		Version:    strings.TrimSpace(formflow.Version),
		APIVersion: apiVersion,
	})
}

// ListForms handles GET /forms.
func (s *Server) ListForms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Forms(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.respond(w, http.StatusOK, ListResponse{Forms: ids})
}

// CreateForm handles POST /forms. A document without an id gets a new one.
func (s *Server) CreateForm(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r, "")
	if !ok {
		return
	}
	if _, err := s.Engine.Form(r.Context(), form.ID); err == nil {
		writeProblem(w, problemFor(r, http.StatusConflict, "form_exists", fmt.Sprintf("form %q already exists", form.ID)), http.StatusConflict)
		return
	}
	saved, err := s.Engine.SaveForm(r.Context(), form)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/forms/"+saved.ID)
	s.respond(w, http.StatusCreated, saved)
}

// GetForm handles GET /forms/{formID}.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.Engine.Form(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, form)
}

// PutForm handles PUT /forms/{formID}.
func (s *Server) PutForm(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r, chi.URLParam(r, "formID"))
	if !ok {
		return
	}
	saved, err := s.Engine.SaveForm(r.Context(), form)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, saved)
}

// DeleteForm handles DELETE /forms/{formID}.
func (s *Server) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteForm(r.Context(), chi.URLParam(r, "formID")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateForm handles POST /forms/validate. It always answers 200 with a
// report, unless the body cannot be read.
func (s *Server) ValidateForm(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	issues := []domain.Issue{}
	if err := schema.ValidateDocument(data); err != nil {
		issues = append(issues, schema.Issues(err)...)
	} else {
		var form domain.Form
		if err := json.Unmarshal(data, &form); err != nil {
			issues = append(issues, domain.Issue{Code: domain.IssueUnknownVariant, Message: err.Error()})
		} else {
			issues = append(issues, domain.Check(&form)...)
		}
	}
	s.respond(w, http.StatusOK, ValidateResponse{Valid: len(issues) == 0, Issues: issues})
}

// Resolve handles POST /forms/{formID}/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var body ResolveRequest
	if !s.decode(w, r, &body) {
		return
	}
	answer, ok := s.clean(w, r, "context", body.Context)
	if !ok {
		return
	}

	next, err := s.Engine.ResolveNext(r.Context(), formflow.ResolveRequest{
		FormID:     chi.URLParam(r, "formID"),
		QuestionID: body.QuestionID,
		Context:    answer,
		ClientAddr: clientAddr(r),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp := ResolveResponse{}
	if next != "" {
		resp.NextQuestionID = &next
	}
	s.respond(w, http.StatusOK, resp)
}

// Evaluate handles POST /forms/{formID}/evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !s.decode(w, r, &body) {
		return
	}
	prompt, ok := s.clean(w, r, "evaluationPrompt", body.EvaluationPrompt)
	if !ok {
		return
	}
	answer, ok := s.clean(w, r, "context", body.Context)
	if !ok {
		return
	}

	v, err := s.Engine.EvaluateCondition(r.Context(), formflow.EvaluateRequest{
		FormID:      chi.URLParam(r, "formID"),
		Prompt:      prompt,
		Context:     answer,
		Model:       body.Model,
		Temperature: body.Temperature,
		ClientAddr:  clientAddr(r),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, EvaluateResponse{VerdictText: v.Text, Value: v.Value})
}

// Generate handles POST /forms/{formID}/generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if !s.decode(w, r, &body) {
		return
	}
	prompt, ok := s.clean(w, r, "generationPrompt", body.GenerationPrompt)
	if !ok {
		return
	}
	answer, ok := s.clean(w, r, "context", body.Context)
	if !ok {
		return
	}

	c, err := s.Engine.GenerateContent(r.Context(), formflow.GenerateRequest{
		FormID:     chi.URLParam(r, "formID"),
		Prompt:     prompt,
		Context:    answer,
		ClientAddr: clientAddr(r),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, GenerateResponse{QuestionID: c.QuestionID, Content: c.Text})
}

// GetCanvas handles GET /forms/{formID}/canvas.
func (s *Server) GetCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.Engine.Canvas(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

// PutCanvas handles PUT /forms/{formID}/canvas and answers with the
// projection of the saved form.
func (s *Server) PutCanvas(w http.ResponseWriter, r *http.Request) {
	var body CanvasRequest
	if !s.decode(w, r, &body) {
		return
	}
	form, err := s.Engine.SaveCanvas(r.Context(), chi.URLParam(r, "formID"), body.Nodes, body.Edges, body.Viewport)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, s.Engine.ToCanvas(form))
}

// DeleteQuestion handles DELETE /forms/{formID}/questions/{questionID}.
func (s *Server) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	policy := domain.DeletePolicy(r.URL.Query().Get("policy"))
	switch policy {
	case "":
		policy = domain.RejectIfReferenced
	case domain.RejectIfReferenced, domain.DetachReferences:
	default:
		badRequest(w, r, fmt.Sprintf("unknown policy %q", policy))
		return
	}

	form, warnings, err := s.Engine.DeleteQuestion(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "questionID"), policy)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []domain.Issue{}
	}
	s.respond(w, http.StatusOK, DeleteQuestionResponse{Form: form, Warnings: warnings})
}

// -- Helpers --

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, problemFor(r, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large"), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		badRequest(w, r, "could not read request body")
		return nil, false
	}
	return data, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	data, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Debug("invalid request body", "path", r.URL.Path, "err", err)
		badRequest(w, r, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(w, r, err.Error())
		return false
	}
	return true
}

// readForm decodes a form document. A non-empty id must match the document's
// id, or fills it in when the document has none; an empty id generates one.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request, id string) (*domain.Form, bool) {
	data, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		badRequest(w, r, "invalid JSON body")
		return nil, false
	}
	var docID string
	if raw, ok := doc["id"]; ok {
		_ = json.Unmarshal(raw, &docID)
	}

	switch {
	case id != "" && docID != "" && docID != id:
		badRequest(w, r, fmt.Sprintf("document id %q does not match path id %q", docID, id))
		return nil, false
	case id == "" && docID == "":
		id = uuid.NewString()
	case id == "":
		id = docID
	}
	if docID != id {
		doc["id"], _ = json.Marshal(id)
		data, _ = json.Marshal(doc)
	}

	form, err := schema.Decode(data)
	if err != nil {
		s.handleError(w, r, err)
		return nil, false
	}
	return form, true
}

func (s *Server) clean(w http.ResponseWriter, r *http.Request, field, text string) (string, bool) {
	out, err := sanitize.Text(field, text)
	if err != nil {
		s.handleError(w, r, err)
		return "", false
	}
	return out, true
}

// clientAddr is the rate-limit key: the socket peer IP. Forwarding
// headers are client controlled and never consulted.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
