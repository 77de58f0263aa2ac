package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/moogar0880/problems"
)

// issueProblem is a problem document that lists validation issues.
type issueProblem struct {
	*problems.Problem
	Issues []domain.Issue `json:"issues,omitempty"`
}

func writeProblem(w http.ResponseWriter, problem any, status int) {
	w.Header().Set("Content-Type", problems.ProblemMediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	problem := problems.NewStatusProblem(http.StatusBadRequest).
		WithInstance(r.URL.Path).
		WithType("validation_error").
		WithDetail(detail)
	writeProblem(w, problem, http.StatusBadRequest)
}

// issuesOf returns the structural or schema issues carried by err.
func issuesOf(err error) []domain.Issue {
	if issues := domain.Issues(err); len(issues) > 0 {
		return issues
	}
	return schema.Issues(err)
}

// handleError maps engine errors to problem documents.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	problem := func(status int, kind string) *problems.Problem {
		return problems.NewStatusProblem(status).
			WithInstance(r.URL.Path).
			WithType(kind)
	}

	var (
		rle *domain.RateLimitError
		oe  *domain.OracleError
	)
	switch {
	case errors.Is(err, domain.ErrValidation):
		p := problem(http.StatusBadRequest, "validation_error").WithDetail(err.Error())
		writeProblem(w, issueProblem{Problem: p, Issues: issuesOf(err)}, http.StatusBadRequest)

	case errors.Is(err, domain.ErrInvalidPrompt):
		// Never echo the submitted prompt back.
		writeProblem(w, problem(http.StatusForbidden, "invalid_prompt").
			WithDetail("prompt does not match the form"), http.StatusForbidden)

	case errors.Is(err, domain.ErrFormNotFound):
		writeProblem(w, problem(http.StatusNotFound, "form_not_found").
			WithDetail("form not found"), http.StatusNotFound)

	case errors.Is(err, domain.ErrQuestionNotFound):
		writeProblem(w, problem(http.StatusNotFound, "question_not_found").
			WithDetail(err.Error()), http.StatusNotFound)

	case errors.As(err, &rle):
		seconds := int(math.Ceil(rle.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeProblem(w, problem(http.StatusTooManyRequests, "rate_limited").
			WithDetail("too many requests, retry later"), http.StatusTooManyRequests)

	case errors.As(err, &oe) && oe.Timeout:
		writeProblem(w, problem(http.StatusGatewayTimeout, "oracle_timeout").
			WithDetail("the oracle did not answer in time"), http.StatusGatewayTimeout)

	case errors.Is(err, domain.ErrOracleFailure):
		s.logger.Warn("oracle failure", "path", r.URL.Path, "err", err)
		writeProblem(w, problem(http.StatusBadGateway, "oracle_failure").
			WithDetail("the oracle failed to answer"), http.StatusBadGateway)

	case errors.Is(err, domain.ErrResolution):
		writeProblem(w, problem(http.StatusConflict, "resolution_error").
			WithDetail(err.Error()), http.StatusConflict)

	default:
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeProblem(w, problem(http.StatusInternalServerError, "internal_error").
			WithDetail("internal error"), http.StatusInternalServerError)
	}
}

func problemFor(r *http.Request, status int, kind, detail string) *problems.Problem {
	return problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(kind).
		WithDetail(detail)
}
