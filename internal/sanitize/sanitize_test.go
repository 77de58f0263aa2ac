package sanitize

import (
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "I have $10k saved", "I have $10k saved"},
		{"Safe Controls", "Line1\nLine2\tTabbed\r\n", "Line1\nLine2\tTabbed\r\n"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
		{"Unicode", "poupança €5k", "poupança €5k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text("context", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := Text("context", "bad \xff\xfe bytes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.ErrorIs(t, err, domain.ErrValidation)

	issues := domain.Issues(err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueInvalidEncoding, issues[0].Code)
}
