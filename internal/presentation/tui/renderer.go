package tui

import (
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer wrapping at width. Plain profiles
// get the markdown back untouched, so piped output stays greppable.
func NewRenderer(p termenv.Profile, width int) (Renderer, error) {
	if p == termenv.Ascii {
		return func(markdown string) (string, error) { return markdown, nil }, nil
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
