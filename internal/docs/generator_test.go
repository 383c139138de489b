package docs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/takak2166/curriculum-tools/internal/config"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/repo"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(b)
}

func generate(t *testing.T, root string) (*Generator, *Plan) {
	t.Helper()
	ls, err := lessons.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	g := NewGenerator(config.Default(root), repo.Slug{Owner: "acme", Repo: "mba"})
	p, err := g.Plan(ls)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if _, err := g.Apply(p); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return g, p
}

func TestGeneratorSingleLesson(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Day_01_Intro/README.md": "# Intro\nHello.\n",
		"mkdocs.yml":             siteConfig,
	})

	_, p := generate(t, root)
	if p.Pages != 1 || p.Skipped != 0 {
		t.Errorf("Plan() pages = %d skipped = %d, want 1 and 0", p.Pages, p.Skipped)
	}

	page := readFile(t, filepath.Join(root, "docs", "lessons", "day-01-intro.md"))
	if page != "Hello.\n" {
		t.Errorf("page = %q, want %q", page, "Hello.\n")
	}

	site := readFile(t, filepath.Join(root, "mkdocs.yml"))
	if !strings.Contains(site, "      - \"Lesson Library\": lessons/index.md\n      - \"Intro\": lessons/day-01-intro.md\n") {
		t.Errorf("site configuration nav not updated:\n%s", site)
	}
	if strings.Contains(site, "day-99-old") {
		t.Error("old nav entries should be replaced")
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "lessons", "index.md")); err != nil {
		t.Errorf("index page should be created: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(root, "Day_01_Intro", "*.ipynb"))
	if len(matches) != 0 {
		t.Errorf("no notebooks should be produced, got %v", matches)
	}
}

func TestGeneratorNavOrderAndStalePages(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Day_03_A/README.md":         "Body A\n",
		"Day_11_B/README.md":         "Body B\n",
		"Day_2_C/README.md":          "Body C\n",
		"Day_04_NoReadme/script.py":  "x = 1\n",
		"docs/lessons/day-99-old.md": "stale\n",
		"docs/lessons/index.md":      "custom index\n",
		"mkdocs.yml":                 siteConfig,
	})

	_, p := generate(t, root)
	if p.Pages != 3 || p.Skipped != 1 {
		t.Errorf("Plan() pages = %d skipped = %d, want 3 and 1", p.Pages, p.Skipped)
	}

	site := readFile(t, filepath.Join(root, "mkdocs.yml"))
	wantNav := "    # AUTOGENERATED LESSON NAV START\n" +
		"      - \"Lesson Library\": lessons/index.md\n" +
		"      - \"Day 02 – C\": lessons/day-2-c.md\n" +
		"      - \"Day 03 – A\": lessons/day-03-a.md\n" +
		"      - \"Day 11 – B\": lessons/day-11-b.md\n" +
		"    # AUTOGENERATED LESSON NAV END\n"
	if !strings.Contains(site, wantNav) {
		t.Errorf("nav = \n%s\nwant region\n%s", site, wantNav)
	}

	if _, err := os.Stat(filepath.Join(root, "docs", "lessons", "day-99-old.md")); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale page should be deleted")
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "lessons", "day-04-noreadme.md")); !errors.Is(err, os.ErrNotExist) {
		t.Error("lesson without README should not get a page")
	}
	if got := readFile(t, filepath.Join(root, "docs", "lessons", "index.md")); got != "custom index\n" {
		t.Errorf("existing index page should be preserved, got %q", got)
	}
}

func TestGeneratorIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Day_01_Intro/README.md":    "# Intro\n\nSee [code](solutions.py).\n",
		"Day_01_Intro/solutions.py": "print(1)\n",
		"mkdocs.yml":                siteConfig,
	})

	generate(t, root)
	first := readFile(t, filepath.Join(root, "docs", "lessons", "day-01-intro.md"))
	firstSite := readFile(t, filepath.Join(root, "mkdocs.yml"))

	g, p := generate(t, root)
	if got := readFile(t, filepath.Join(root, "docs", "lessons", "day-01-intro.md")); got != first {
		t.Errorf("second run changed the page:\n%s\nvs\n%s", got, first)
	}
	if got := readFile(t, filepath.Join(root, "mkdocs.yml")); got != firstSite {
		t.Error("second run changed the site configuration")
	}

	diff, current, err := g.Check(p)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !current || diff != "" {
		t.Errorf("Check() current = %v, diff = %q", current, diff)
	}

	want := "See [code](https://github.com/acme/mba/blob/main/Day_01_Intro/solutions.py).\n\n" +
		"## Additional Materials\n\n" +
		"- [solutions.py](https://github.com/acme/mba/blob/main/Day_01_Intro/solutions.py)\n"
	if first != want {
		t.Errorf("page = %q, want %q", first, want)
	}
}

func TestGeneratorCheckReportsDrift(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Day_01_Intro/README.md": "# Intro\nHello.\n",
		"mkdocs.yml":             siteConfig,
	})
	g, p := generate(t, root)

	page := filepath.Join(root, "docs", "lessons", "day-01-intro.md")
	if err := os.WriteFile(page, []byte("edited by hand\n"), 0o644); err != nil {
		t.Fatalf("Failed to edit page: %v", err)
	}

	diff, current, err := g.Check(p)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if current {
		t.Error("Check() should report drift")
	}
	if !strings.Contains(diff, "a/docs/lessons/day-01-intro.md") || !strings.Contains(diff, "+Hello.") {
		t.Errorf("Check() diff = %q", diff)
	}
}

func TestGeneratorMarkerErrorWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Day_01_Intro/README.md": "# Intro\nHello.\n",
		"mkdocs.yml":             "site_name: Curriculum\nnav:\n  - Home: index.md\n",
	})
	ls, err := lessons.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	g := NewGenerator(config.Default(root), repo.Slug{Owner: "acme", Repo: "mba"})
	if _, err := g.Plan(ls); !errors.Is(err, ErrConfigMarkers) {
		t.Fatalf("Plan() error = %v, want ErrConfigMarkers", err)
	}
	if _, err := os.Stat(filepath.Join(root, "docs")); !errors.Is(err, os.ErrNotExist) {
		t.Error("nothing should be written when markers are invalid")
	}
}
