package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrFormNotFound is returned when a form id cannot be found in the store.
	ErrFormNotFound = errors.New("form not found")

	// ErrQuestionNotFound is returned when a question id is not part of the form.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrValidation marks structural defects in a form or request. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPrompt is returned when submitted prompt text does not match any
	// prompt authored in the stored form. Never retried.
	ErrInvalidPrompt = errors.New("invalid prompt")

	// ErrRateLimited is returned when the client exhausted its window quota.
	ErrRateLimited = errors.New("rate limited")

	// ErrOracleFailure marks network, timeout or unparseable oracle output.
	ErrOracleFailure = errors.New("oracle failure")

	// ErrResolution is returned when a model-directed choice is outside the
	// candidate set. The form flow does not advance.
	ErrResolution = errors.New("resolution failed")
)

// IssueCode classifies a structural defect.
type IssueCode string

const (
	IssueEmptyID          IssueCode = "empty_id"
	IssueDuplicateID      IssueCode = "duplicate_id"
	IssueReservedID       IssueCode = "reserved_id"
	IssueDanglingRef      IssueCode = "dangling_reference"
	IssuePromptTooLong    IssueCode = "prompt_too_long"
	IssuePromptMissing    IssueCode = "prompt_missing"
	IssueContextTooLong   IssueCode = "context_too_long"
	IssueMissingContent   IssueCode = "missing_content"
	IssueMissingCondition IssueCode = "missing_condition"
	IssueEmptyCombinator  IssueCode = "empty_combinator"
	IssueUnknownVariant   IssueCode = "unknown_variant"
	IssueStillReferenced  IssueCode = "still_referenced"
	IssueInvalidPosition  IssueCode = "invalid_position"
	IssueInvalidEncoding  IssueCode = "invalid_encoding"
)

// Issue is a single structural defect.
type Issue struct {
	Code       IssueCode `json:"code"`
	QuestionID string    `json:"questionId,omitempty"`
	Path       string    `json:"path,omitempty"`
	Message    string    `json:"message"`
}

func (i Issue) String() string {
	var b strings.Builder
	if i.QuestionID != "" {
		fmt.Fprintf(&b, "question %q", i.QuestionID)
		if i.Path != "" {
			fmt.Fprintf(&b, " (%s)", i.Path)
		}
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// ValidationError aggregates every defect found, so an editor can report all
// problems at once.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0].String()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Issues))
	for i, issue := range e.Issues {
		msg += fmt.Sprintf("  %d. %s\n", i+1, issue.String())
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError holding a single issue.
func NewValidationError(code IssueCode, questionID, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Code: code, QuestionID: questionID, Message: message}}}
}

// Issues returns the issues of err if it is a ValidationError, otherwise nil.
func Issues(err error) []Issue {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}

// RateLimitError carries the limiter key and the time until the window resets.
type RateLimitError struct {
	Limiter    string
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s quota exhausted, retry after %s", e.Limiter, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// OracleError wraps a failed oracle call.
type OracleError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *OracleError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("oracle failure: %s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("oracle failure: %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

func (e *OracleError) Is(target error) bool { return target == ErrOracleFailure }

// ResolutionError reports a model-directed choice that cannot be honoured.
type ResolutionError struct {
	QuestionID string
	Choice     string
	Reason     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution failed at question %q: %s (choice %q)", e.QuestionID, e.Reason, e.Choice)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// Retryable reports whether a caller may retry the operation that produced err.
// Rate limits and oracle failures are transient; everything else is not.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOracleFailure)
}
