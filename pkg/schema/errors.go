package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/formflow/pkg/domain"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field path, e.g. "questions.1.transition"
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Is lets callers treat schema failures like any other validation failure.
func (e *AggregateError) Is(target error) bool { return target == domain.ErrValidation }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Issues converts schema failures into domain issues so they can be reported
// alongside graph-level defects.
func Issues(err error) []domain.Issue {
	var out []domain.Issue
	for _, e := range ValidationErrors(err) {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, domain.Issue{Code: domain.IssueUnknownVariant, Path: ve.Key, Message: ve.Reason})
			continue
		}
		out = append(out, domain.Issue{Code: domain.IssueUnknownVariant, Message: e.Error()})
	}
	return out
}
