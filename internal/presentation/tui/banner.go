package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _____                    _____ _               ", "#818cf8"},
	{" |  ___|__  _ __ _ __ ___ |  ___| | _____      __", "#a78bfa"},
	{" | |_ / _ \\| '__| '_ ` _ \\| |_  | |/ _ \\ \\ /\\ / /", "#c084fc"},
	{" |  _| (_) | |  | | | | | |  _| | | (_) \\ V  V / ", "#e879f9"},
	{" |_|  \\___/|_|  |_| |_| |_|_|   |_|\\___/ \\_/\\_/  ", "#f472b6"},
}

// PrintBanner writes the FormFlow banner followed by a one-line subtitle.
func PrintBanner(w io.Writer, p termenv.Profile, subtitle string) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, p.String("  "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
