// Package tui renders command output for terminals.
package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Profile returns the color profile for f: the environment's profile when f
// is a terminal, Ascii otherwise.
func Profile(f *os.File) termenv.Profile {
	if !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// Width returns the terminal width of f, or 0 when unknown.
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Report writes the validation result for source and reports whether it was
// clean.
func Report(w io.Writer, p termenv.Profile, source string, issues []domain.Issue) bool {
	if len(issues) == 0 {
		fmt.Fprintf(w, "%s %s\n", p.String("ok").Foreground(p.Color("#22c55e")).Bold(), source)
		return true
	}

	fmt.Fprintf(w, "%s %s (%d issues)\n", p.String("fail").Foreground(p.Color("#ef4444")).Bold(), source, len(issues))
	for _, issue := range issues {
		where := issue.QuestionID
		if where == "" {
			where = issue.Path
		}
		if where == "" {
			where = "-"
		}
		fmt.Fprintf(w, "  %s %s: %s\n",
			p.String(string(issue.Code)).Foreground(p.Color("#f59e0b")),
			p.String(where).Bold(),
			issue.Message)
	}
	return false
}
