// Package sanitize cleans client text at the transport boundary before it
// reaches the engine.
package sanitize

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/formflow/pkg/domain"
)

// ErrInvalidUTF8 is wrapped by the validation error returned for malformed text.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// Text validates UTF-8 and strips control characters other than newline,
// tab and carriage return. Length limits are enforced by the engine.
func Text(field, input string) (string, error) {
	if !utf8.ValidString(input) {
		return "", errors.Join(
			domain.NewValidationError(domain.IssueInvalidEncoding, "", field+": "+ErrInvalidUTF8.Error()),
			ErrInvalidUTF8,
		)
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	out := make([]rune, 0, len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			out = append(out, r)
		}
	}
	return string(out), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
