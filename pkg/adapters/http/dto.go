package http

import "github.com/aretw0/formflow/pkg/domain"

// ResolveRequest is the body of POST /forms/{formID}/resolve.
type ResolveRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Context    string `json:"context"`
}

// ResolveResponse carries the next question id, null when the form ends.
type ResolveResponse struct {
	NextQuestionID *string `json:"nextQuestionId"`
}

// EvaluateRequest is the body of POST /forms/{formID}/evaluate.
type EvaluateRequest struct {
	EvaluationPrompt string   `json:"evaluationPrompt" validate:"required"`
	Context          string   `json:"context"`
	Model            *string  `json:"model,omitempty" validate:"omitempty,min=1"`
	Temperature      *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// EvaluateResponse is the oracle's verdict.
type EvaluateResponse struct {
	VerdictText string `json:"verdictText"`
	Value       bool   `json:"value"`
}

// GenerateRequest is the body of POST /forms/{formID}/generate.
type GenerateRequest struct {
	GenerationPrompt string `json:"generationPrompt" validate:"required"`
	Context          string `json:"context"`
}

// GenerateResponse is generated question content.
type GenerateResponse struct {
	QuestionID string `json:"questionId"`
	Content    string `json:"content"`
}

// CanvasRequest is the body of PUT /forms/{formID}/canvas.
type CanvasRequest struct {
	Nodes    []domain.CanvasNode `json:"nodes" validate:"dive"`
	Edges    []domain.CanvasEdge `json:"edges" validate:"dive"`
	Viewport *domain.Viewport    `json:"viewport,omitempty"`
}

// ValidateResponse reports every defect of a submitted form document.
type ValidateResponse struct {
	Valid  bool           `json:"valid"`
	Issues []domain.Issue `json:"issues"`
}

// DeleteQuestionResponse is the form after a question was removed.
type DeleteQuestionResponse struct {
	Form     *domain.Form   `json:"form"`
	Warnings []domain.Issue `json:"warnings"`
}

// ListResponse lists stored form ids.
type ListResponse struct {
	Forms []string `json:"forms"`
}

// InfoResponse describes the running server.
type InfoResponse struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
}
