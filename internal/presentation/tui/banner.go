package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the few banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`   __`, "#818cf8"},
		{`  / _| ___ __      __`, "#a78bfa"},
		{` | |_ / _ \ \ /\ / /`, "#c084fc"},
		{` |  _|  __/\ V  V /`, "#e879f9"},
		{` |_|  \___| \_/\_/`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
