package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name   string
		readme string // empty means no README
		script string
		want   []models.Cell
	}{
		{
			name:   "readme docstring and cells",
			readme: "\ufeff# Day 1\n\nWelcome.\n\n",
			script: "\"\"\"Loading data.\"\"\"\nimport csv\n# %% [markdown]\nNext step.\n",
			want: []models.Cell{
				{Type: models.CellMarkdown, Source: "# Day 1\n\nWelcome."},
				{Type: models.CellMarkdown, Source: "Loading data."},
				{Type: models.CellCode, Source: "import csv\n"},
				{Type: models.CellMarkdown, Source: "Next step.\n"},
			},
		},
		{
			name:   "no docstring and no markers",
			script: "x = 1\nprint(x)\n",
			want: []models.Cell{
				{Type: models.CellCode, Source: "x = 1\nprint(x)\n"},
			},
		},
		{
			name:   "only a docstring",
			script: "\"\"\"Only prose.\"\"\"\n",
			want: []models.Cell{
				{Type: models.CellMarkdown, Source: "Only prose."},
			},
		},
		{
			name:   "empty script gets placeholder",
			script: "\n\n",
			want: []models.Cell{
				{Type: models.CellMarkdown, Source: Placeholder},
			},
		},
		{
			name:   "blank readme contributes nothing",
			readme: "\n\n",
			script: "",
			want: []models.Cell{
				{Type: models.CellMarkdown, Source: Placeholder},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			script := filepath.Join(dir, "lesson.py")
			writeFile(t, script, tt.script)
			if tt.readme != "" {
				writeFile(t, filepath.Join(dir, "README.md"), tt.readme)
			}

			nb, err := Synthesize(script, Options{PythonVersion: "3.12.1"})
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if !reflect.DeepEqual(nb.Cells, tt.want) {
				t.Errorf("Synthesize() cells = %#v, want %#v", nb.Cells, tt.want)
			}
			if nb.PythonVersion != "3.12.1" {
				t.Errorf("Synthesize() python version = %q, want %q", nb.PythonVersion, "3.12.1")
			}
		})
	}
}

func TestSynthesizeRejectsInvalidUTF8(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.py")
	if err := os.WriteFile(script, []byte{'x', '=', 0xff, '\n'}, 0o644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	if _, err := Synthesize(script, Options{}); err == nil {
		t.Error("Synthesize() error = nil, want error for invalid UTF-8")
	}
}

func TestEncode(t *testing.T) {
	nb := &models.Notebook{
		PythonVersion: "3.11.4",
		Cells: []models.Cell{
			{Type: models.CellMarkdown, Source: "Café <b>"},
			{Type: models.CellCode, Source: "x = 1\ny = 2\n"},
		},
	}

	data, err := Encode(nb, "lesson.py")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("{\n \"cells\": [\n")) {
		t.Errorf("Encode() should use one-space indentation, got %q", data[:20])
	}
	if !bytes.HasSuffix(data, []byte("}\n")) {
		t.Error("Encode() output should end with a newline")
	}
	if !bytes.Contains(data, []byte("Café <b>")) {
		t.Error("Encode() should keep non-ASCII and HTML characters unescaped")
	}

	var doc struct {
		Cells []struct {
			CellType       string         `json:"cell_type"`
			ID             string         `json:"id"`
			Source         []string       `json:"source"`
			Outputs        []any          `json:"outputs"`
			ExecutionCount *int           `json:"execution_count"`
			Metadata       map[string]any `json:"metadata"`
		} `json:"cells"`
		Metadata struct {
			Kernelspec   map[string]string `json:"kernelspec"`
			LanguageInfo map[string]string `json:"language_info"`
		} `json:"metadata"`
		Nbformat      int `json:"nbformat"`
		NbformatMinor int `json:"nbformat_minor"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Encode() produced invalid JSON: %v", err)
	}

	if doc.Nbformat != 4 || doc.NbformatMinor != 5 {
		t.Errorf("nbformat = %d.%d, want 4.5", doc.Nbformat, doc.NbformatMinor)
	}
	if doc.Metadata.Kernelspec["name"] != "python3" || doc.Metadata.Kernelspec["language"] != "python" {
		t.Errorf("kernelspec = %v", doc.Metadata.Kernelspec)
	}
	if doc.Metadata.LanguageInfo["version"] != "3.11.4" {
		t.Errorf("language_info.version = %q, want %q", doc.Metadata.LanguageInfo["version"], "3.11.4")
	}
	if len(doc.Cells) != 2 {
		t.Fatalf("Expected 2 cells, got %d", len(doc.Cells))
	}
	if doc.Cells[0].CellType != "markdown" || doc.Cells[0].Outputs != nil {
		t.Errorf("markdown cell = %+v", doc.Cells[0])
	}
	code := doc.Cells[1]
	if code.CellType != "code" || code.ExecutionCount != nil || code.Outputs == nil || len(code.Outputs) != 0 {
		t.Errorf("code cell = %+v", code)
	}
	if want := []string{"x = 1\n", "y = 2\n"}; !reflect.DeepEqual(code.Source, want) {
		t.Errorf("code cell source = %q, want %q", code.Source, want)
	}
	if doc.Cells[0].ID == "" || doc.Cells[0].ID == code.ID {
		t.Errorf("cell ids should be present and distinct, got %q and %q", doc.Cells[0].ID, code.ID)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	nb := &models.Notebook{
		PythonVersion: DefaultPythonVersion,
		Cells:         []models.Cell{{Type: models.CellCode, Source: "print('hi')\n"}},
	}
	first, err := Encode(nb, "a.py")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	second, err := Encode(nb, "a.py")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Encode() should produce identical bytes for identical input")
	}

	other, err := Encode(nb, "b.py")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if bytes.Equal(first, other) {
		t.Error("Encode() cell ids should depend on the seed")
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "analysis.py")
	writeFile(t, script, "x = 1\n")

	out, changed, err := Convert(script, Options{PythonVersion: "3.11.0"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if out != filepath.Join(dir, "analysis.ipynb") {
		t.Errorf("Convert() path = %q", out)
	}
	if !changed {
		t.Error("first Convert() should report a change")
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read notebook: %v", err)
	}

	_, changed, err = Convert(script, Options{PythonVersion: "3.11.0"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if changed {
		t.Error("second Convert() should leave the notebook unchanged")
	}
	second, _ := os.ReadFile(out)
	if !bytes.Equal(first, second) {
		t.Error("re-running Convert() should produce identical bytes")
	}
}

func TestConvertFailureKeepsPreviousNotebook(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "broken.py")
	if err := os.WriteFile(script, []byte{0xff, 0xfe}, 0o644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	previous := filepath.Join(dir, "broken.ipynb")
	writeFile(t, previous, "previous")

	if _, _, err := Convert(script, Options{}); err == nil {
		t.Fatal("Convert() error = nil, want error")
	}
	got, _ := os.ReadFile(previous)
	if string(got) != "previous" {
		t.Errorf("previous notebook was modified: %q", got)
	}
}

func TestConvertAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Day_01_Intro", "good.py"), "x = 1\n")
	if err := os.WriteFile(filepath.Join(root, "Day_01_Intro", "bad.py"), []byte{0xff}, 0o644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	writeFile(t, filepath.Join(root, "Day_02_Data", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "Day_02_Data", "load.py"), "\"\"\"Load.\"\"\"\n")

	ls, err := lessons.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	sum := ConvertAll(ls, Options{PythonVersion: "3.11.0"})
	if sum.Converted != 2 || sum.Failed != 1 || sum.Unchanged != 0 {
		t.Errorf("ConvertAll() = %+v, want 2 converted and 1 failed", sum)
	}
	if _, err := os.Stat(filepath.Join(root, "Day_02_Data", "__init__.ipynb")); !errors.Is(err, os.ErrNotExist) {
		t.Error("__init__.py should not be converted")
	}

	sum = ConvertAll(ls, Options{PythonVersion: "3.11.0"})
	if sum.Converted != 0 || sum.Unchanged != 2 || sum.Total() != 2 {
		t.Errorf("second ConvertAll() = %+v, want 2 unchanged", sum)
	}
}

type fakeRunner struct {
	out string
	err error
}

func (f fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	return f.err
}

func (f fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	if name != "python3" || strings.Join(args, " ") != "--version" {
		return "", errors.New("unexpected command")
	}
	return f.out, f.err
}

func TestDetectPythonVersion(t *testing.T) {
	tests := []struct {
		name     string
		override string
		runner   fakeRunner
		want     string
	}{
		{name: "override wins", override: "3.12.1", runner: fakeRunner{out: "Python 3.9.0"}, want: "3.12.1"},
		{name: "probe", runner: fakeRunner{out: "Python 3.10.4"}, want: "3.10.4"},
		{name: "probe fails", runner: fakeRunner{err: errors.New("not found")}, want: DefaultPythonVersion},
		{name: "unparsable probe output", runner: fakeRunner{out: "Python"}, want: DefaultPythonVersion},
		{name: "malformed override falls through", override: "latest", runner: fakeRunner{out: "Python 3.13.0"}, want: "3.13.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectPythonVersion(context.Background(), tt.override, tt.runner); got != tt.want {
				t.Errorf("DetectPythonVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}
