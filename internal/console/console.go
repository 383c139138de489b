// Package console formats the human-facing output of the toolchain commands.
package console

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	maxWidth     = 100
)

// Width returns the usable output width for stdout, capped for readability.
func Width() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return clamp(w)
		}
	}
	if v := os.Getenv("COLUMNS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			return clamp(w)
		}
	}
	return defaultWidth
}

func clamp(w int) int {
	if w > maxWidth {
		return maxWidth
	}
	return w
}

// Wrap word-wraps text to width columns.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	return wordwrap.String(text, width)
}

// PadRight pads s with spaces to n printable columns.
func PadRight(s string, n int) string {
	w := ansi.PrintableRuneWidth(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// PadLeft right-aligns s in n printable columns.
func PadLeft(s string, n int) string {
	w := ansi.PrintableRuneWidth(s)
	if w >= n {
		return s
	}
	return strings.Repeat(" ", n-w) + s
}

// Rule returns a horizontal separator of width columns.
func Rule(width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	return strings.Repeat("─", width)
}
