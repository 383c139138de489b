// Package notebook converts lesson scripts into Jupyter notebooks.
//
// A script becomes: the lesson README (if any) as a Markdown cell, the module
// docstring as a Markdown cell, then the body split on "# %%" markers. The
// output is nbformat 4.5 JSON written next to the script.
package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/takak2166/curriculum-tools/internal/fsutil"
	"github.com/takak2166/curriculum-tools/internal/models"
)

const (
	nbformatMajor = 4
	nbformatMinor = 5

	// Placeholder is the only cell of a notebook built from an empty script.
	Placeholder = "This lesson has no executable content."
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures notebook synthesis
type Options struct {
	PythonVersion string
}

// Synthesize builds the notebook for one script without writing anything
func Synthesize(scriptPath string, opts Options) (*models.Notebook, error) {
	src, err := readText(scriptPath)
	if err != nil {
		return nil, err
	}

	nb := &models.Notebook{PythonVersion: opts.PythonVersion}
	if nb.PythonVersion == "" {
		nb.PythonVersion = DefaultPythonVersion
	}

	readme, err := readText(filepath.Join(filepath.Dir(scriptPath), "README.md"))
	switch {
	case err == nil:
		readme = strings.TrimRight(readme, "\r\n")
		if strings.TrimSpace(readme) != "" {
			nb.Cells = append(nb.Cells, models.Cell{Type: models.CellMarkdown, Source: readme})
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read README: %w", err)
	}

	doc, body, found := ExtractDocstring(src)
	if found && doc != "" {
		nb.Cells = append(nb.Cells, models.Cell{Type: models.CellMarkdown, Source: doc})
	}
	nb.Cells = append(nb.Cells, SplitCells(body)...)

	if len(nb.Cells) == 0 {
		nb.Cells = append(nb.Cells, models.Cell{Type: models.CellMarkdown, Source: Placeholder})
	}
	return nb, nil
}

// Encode serializes nb the way nbformat writes notebooks: one-space indent,
// sorted keys, unescaped non-ASCII text and a trailing newline. Cell ids are
// derived from seed, the cell position and its source so output is stable.
func Encode(nb *models.Notebook, seed string) ([]byte, error) {
	cells := make([]map[string]any, 0, len(nb.Cells))
	for i, c := range nb.Cells {
		cell := map[string]any{
			"cell_type": string(c.Type),
			"id":        cellID(seed, i, c.Source),
			"metadata":  map[string]any{},
			"source":    sourceLines(c.Source),
		}
		if c.Type == models.CellCode {
			cell["execution_count"] = nil
			cell["outputs"] = []any{}
		}
		cells = append(cells, cell)
	}

	doc := map[string]any{
		"cells": cells,
		"metadata": map[string]any{
			"kernelspec": map[string]any{
				"display_name": "Python 3",
				"language":     "python",
				"name":         "python3",
			},
			"language_info": map[string]any{
				"name":    "python",
				"version": nb.PythonVersion,
			},
		},
		"nbformat":       nbformatMajor,
		"nbformat_minor": nbformatMinor,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OutputPath returns the notebook path for a script: same base name, .ipynb extension
func OutputPath(scriptPath string) string {
	return strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath)) + ".ipynb"
}

// Convert synthesizes and writes the notebook for scriptPath. changed is false
// when the existing notebook already had identical bytes. On error nothing is
// written, so a previously generated notebook stays as it was.
func Convert(scriptPath string, opts Options) (outPath string, changed bool, err error) {
	nb, err := Synthesize(scriptPath, opts)
	if err != nil {
		return "", false, err
	}
	data, err := Encode(nb, filepath.Base(scriptPath))
	if err != nil {
		return "", false, fmt.Errorf("failed to encode notebook: %w", err)
	}
	outPath = OutputPath(scriptPath)
	if fsutil.SameContent(outPath, data) {
		return outPath, false, nil
	}
	if err := fsutil.WriteFileAtomic(outPath, data, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write notebook: %w", err)
	}
	return outPath, true, nil
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s is not valid UTF-8", filepath.Base(path))
	}
	return string(b), nil
}

// sourceLines splits cell text into nbformat's list-of-lines representation
func sourceLines(src string) []string {
	lines := splitLines(src)
	if lines == nil {
		return []string{}
	}
	return lines
}

func cellID(seed string, index int, src string) string {
	name := fmt.Sprintf("%s\x00%d\x00%s", seed, index, src)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
