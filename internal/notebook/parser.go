package notebook

import (
	"regexp"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/models"
)

// cellMarker matches "# %%" and "# %% [markdown]" lines; anything after the
// marker is a human-facing label and is discarded.
var cellMarker = regexp.MustCompile(`^#\s*%%(\s*\[markdown\])?`)

// ExtractDocstring removes a leading module docstring from a Python script.
//
// Only a conservative subset of Python is recognised: blank lines and comments
// may precede the string, the string must start at column 0 (optionally with an
// r/u prefix) and nothing but a comment may follow it on its closing line.
// Anything else, including an unterminated string, counts as "no docstring" and
// the source is returned untouched.
func ExtractDocstring(src string) (doc string, body string, found bool) {
	lines := splitLines(src)
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		start = i
		break
	}
	if start < 0 {
		return "", src, false
	}

	first := lines[start]
	pos := 0
	if pos < len(first) && strings.ContainsRune("rRuU", rune(first[pos])) {
		pos++
	}
	var delim string
	switch {
	case strings.HasPrefix(first[pos:], `"""`):
		delim = `"""`
	case strings.HasPrefix(first[pos:], `'''`):
		delim = `'''`
	case strings.HasPrefix(first[pos:], `"`):
		delim = `"`
	case strings.HasPrefix(first[pos:], `'`):
		delim = `'`
	default:
		return "", src, false
	}

	// Scan from the opening quote across the remaining source.
	rest := strings.Join(lines[start:], "")
	open := pos + len(delim)
	end := closingQuote(rest, open, delim)
	if end < 0 {
		return "", src, false
	}
	content := rest[open:end]
	after := rest[end+len(delim):]

	tail := after
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		tail = after[:nl]
		after = after[nl+1:]
	} else {
		after = ""
	}
	if t := strings.TrimSpace(tail); t != "" && !strings.HasPrefix(t, "#") {
		return "", src, false
	}

	remaining := strings.Join(lines[:start], "") + after
	return strings.TrimSpace(content), trimLeadingBlankLines(remaining), true
}

// closingQuote returns the index of the delimiter closing a string literal
// opened just before from, or -1. Single-quoted strings may not span lines.
func closingQuote(s string, from int, delim string) int {
	for i := from; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case s[i] == '\n' && len(delim) == 1:
			return -1
		case strings.HasPrefix(s[i:], delim):
			return i
		}
	}
	return -1
}

// SplitCells splits a script body on "# %%" markers. Text before the first
// marker forms a code cell unless it is blank. Cells opened by a marker are kept
// even when blank, except at the end of the body where blank cells are dropped.
func SplitCells(body string) []models.Cell {
	var (
		cells  []models.Cell
		cur    = models.Cell{Type: models.CellCode}
		buf    strings.Builder
		marked bool
	)
	flush := func() {
		src := buf.String()
		if marked || strings.TrimSpace(src) != "" {
			cells = append(cells, models.Cell{Type: cur.Type, Source: src})
		}
		buf.Reset()
	}

	for _, line := range splitLines(body) {
		m := cellMarker.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			buf.WriteString(line)
			continue
		}
		flush()
		marked = true
		if m[1] != "" {
			cur = models.Cell{Type: models.CellMarkdown}
		} else {
			cur = models.Cell{Type: models.CellCode}
		}
	}
	flush()

	for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1].Source) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// splitLines splits s after every newline, keeping line endings.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimLeadingBlankLines(s string) string {
	for {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 || strings.TrimSpace(s[:nl]) != "" {
			if strings.TrimSpace(s) == "" {
				return ""
			}
			return s
		}
		s = s[nl+1:]
	}
}
