package evaluator

import (
	"fmt"
	"strings"
)

// VerdictInstruction is appended to every predicate so the oracle answers
// with a single fixed token.
const VerdictInstruction = "Answer with exactly one word: true or false."

// ParseVerdict coerces an oracle reply to a boolean. Only the tokens
// true/yes and false/no are accepted, ignoring case, surrounding quotes or
// backticks and trailing punctuation. Anything else is an error.
func ParseVerdict(reply string) (bool, error) {
	token := strings.ToLower(strings.TrimSpace(reply))
	token = strings.Trim(token, "\"'`")
	token = strings.TrimRight(token, ".!?,;:")
	token = strings.TrimSpace(strings.Trim(token, "\"'`*"))

	switch token {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("unparseable verdict %q", Abbrev(reply, 40))
	}
}

// Abbrev shortens s to at most n runes for error messages.
func Abbrev(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
