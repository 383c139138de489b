package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/takak2166/curriculum-tools/internal/models"
)

const (
	NavStartMarker = "# AUTOGENERATED LESSON NAV START"
	NavEndMarker   = "# AUTOGENERATED LESSON NAV END"

	// LibraryLabel is the nav label of docs/lessons/index.md, always the first entry.
	LibraryLabel = "Lesson Library"
	LibraryFile  = "index.md"

	navIndent = "      "
)

// ErrConfigMarkers reports a site configuration without exactly one well-ordered marker pair
var ErrConfigMarkers = errors.New("invalid lesson nav markers in site configuration")

// RenderNav renders one nav line per entry: six spaces, "- ", the JSON-quoted
// label, then ": lessons/<file>".
func RenderNav(entries []models.NavEntry) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		label, err := quoteLabel(e.Label)
		if err != nil {
			return "", fmt.Errorf("failed to quote nav label %q: %w", e.Label, err)
		}
		fmt.Fprintf(&b, "%s- %s: lessons/%s\n", navIndent, label, e.File)
	}
	return b.String(), nil
}

// quoteLabel JSON-escapes a label. Non-ASCII text is kept as UTF-8 since YAML
// rejects the surrogate-pair escapes JSON would need outside the BMP.
func quoteLabel(label string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(label); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ReplaceManagedRegion swaps the lines between the start and end markers for
// block. Everything outside the markers, including the marker lines, is kept
// byte for byte.
func ReplaceManagedRegion(config, block string) (string, error) {
	lines := strings.SplitAfter(config, "\n")
	start, end := -1, -1
	starts, ends := 0, 0
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case NavStartMarker:
			start = i
			starts++
		case NavEndMarker:
			end = i
			ends++
		}
	}
	switch {
	case starts != 1 || ends != 1:
		return "", fmt.Errorf("%w: found %d start and %d end markers, want exactly one of each", ErrConfigMarkers, starts, ends)
	case end < start:
		return "", fmt.Errorf("%w: end marker precedes start marker", ErrConfigMarkers)
	}

	var b strings.Builder
	for _, line := range lines[:start+1] {
		b.WriteString(line)
	}
	b.WriteString(block)
	for _, line := range lines[end:] {
		b.WriteString(line)
	}
	return b.String(), nil
}

// checkYAML fails when updated no longer parses although original did
func checkYAML(original, updated []byte) error {
	var before, after yaml.Node
	if err := yaml.Unmarshal(original, &before); err != nil {
		return nil
	}
	if err := yaml.Unmarshal(updated, &after); err != nil {
		return fmt.Errorf("%w: rewritten configuration is not valid YAML: %v", ErrConfigMarkers, err)
	}
	return nil
}
