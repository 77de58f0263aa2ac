package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"true", true},
		{"  TRUE\n", true},
		{"Yes.", true},
		{"`true`", true},
		{"\"false\"", false},
		{"No!", false},
		{"**false**", false},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := ParseVerdict(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVerdict_Ambiguous(t *testing.T) {
	for _, reply := range []string{"", "maybe", "maybe, leaning no", "true and false", "1", "It is true that the user mentions a budget"} {
		_, err := ParseVerdict(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}
