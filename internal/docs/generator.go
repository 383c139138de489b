// Package docs generates the lesson pages of the documentation site and keeps
// the lesson navigation of the site configuration in sync with them.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/takak2166/curriculum-tools/internal/config"
	"github.com/takak2166/curriculum-tools/internal/fsutil"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/models"
	"github.com/takak2166/curriculum-tools/internal/repo"
)

// stalePagePattern matches pages written by earlier runs
const stalePagePattern = "day-*.md"

const defaultIndexPage = `# Lesson Library

Every lesson of the curriculum has its own page, listed in day order in the
navigation. Each page links to the lesson's scripts and notebooks on GitHub.
`

// Generator turns lesson READMEs into documentation pages
type Generator struct {
	cfg    *config.Config
	linker Linker
}

// FileWrite is one output file of a Plan
type FileWrite struct {
	Path string
	Data []byte
}

// Plan holds everything a run would change, computed without touching disk
type Plan struct {
	Deletes []string
	Writes  []FileWrite
	Nav     []models.NavEntry

	Pages   int // lesson pages generated
	Skipped int // lessons without a usable README
}

// NewGenerator creates a generator for the repository described by cfg
func NewGenerator(cfg *config.Config, slug repo.Slug) *Generator {
	return &Generator{
		cfg:    cfg,
		linker: Linker{Root: cfg.Root, Slug: slug, Branch: cfg.Branch},
	}
}

// Plan renders all pages and the updated site configuration for ls, which must
// be sorted by day. Marker problems in the site configuration are reported here,
// before anything is written.
func (g *Generator) Plan(ls []models.Lesson) (*Plan, error) {
	p := &Plan{
		Nav: []models.NavEntry{{Label: LibraryLabel, File: LibraryFile}},
	}
	generated := make(map[string]bool)

	for _, l := range ls {
		page, label, ok := g.renderLesson(l)
		if !ok {
			p.Skipped++
			continue
		}
		path := filepath.Join(g.cfg.LessonsDocsDir, l.PageFile())
		p.Writes = append(p.Writes, FileWrite{Path: path, Data: []byte(page)})
		p.Nav = append(p.Nav, models.NavEntry{Label: label, File: l.PageFile()})
		generated[path] = true
		p.Pages++
	}

	stale, err := filepath.Glob(filepath.Join(g.cfg.LessonsDocsDir, stalePagePattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list generated pages: %w", err)
	}
	sort.Strings(stale)
	for _, s := range stale {
		if !generated[s] {
			p.Deletes = append(p.Deletes, s)
		}
	}

	index := filepath.Join(g.cfg.LessonsDocsDir, LibraryFile)
	if _, err := os.Stat(index); os.IsNotExist(err) {
		p.Writes = append(p.Writes, FileWrite{Path: index, Data: []byte(defaultIndexPage)})
	}

	site, err := g.renderSiteConfig(p.Nav)
	if err != nil {
		return nil, err
	}
	p.Writes = append(p.Writes, FileWrite{Path: g.cfg.SiteConfig, Data: site})
	return p, nil
}

// renderLesson returns the page and nav label for l. ok is false when the
// lesson has no README or it cannot be used; the latter is logged.
func (g *Generator) renderLesson(l models.Lesson) (page, label string, ok bool) {
	readme, found, err := lessons.ReadME(l)
	if err != nil {
		logger.Warn("Skipping lesson with unreadable README", err, map[string]interface{}{"lesson": l.Name})
		return "", "", false
	}
	if !found {
		logger.Debug("Lesson has no README", map[string]interface{}{"lesson": l.Name})
		return "", "", false
	}
	if !utf8.ValidString(readme) {
		logger.Warn("Skipping lesson with non UTF-8 README", nil, map[string]interface{}{"lesson": l.Name})
		return "", "", false
	}

	materials, err := Materials(l, g.linker)
	if err != nil {
		logger.Warn("Skipping lesson with unreadable directory", err, map[string]interface{}{"lesson": l.Name})
		return "", "", false
	}
	heading, _ := lessons.FirstHeading(readme)
	return RenderPage(readme, l, g.linker, materials), NavLabel(l, heading), true
}

func (g *Generator) renderSiteConfig(nav []models.NavEntry) ([]byte, error) {
	original, err := os.ReadFile(g.cfg.SiteConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read site configuration: %w", err)
	}
	block, err := RenderNav(nav)
	if err != nil {
		return nil, err
	}
	updated, err := ReplaceManagedRegion(string(original), block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(g.cfg.SiteConfig), err)
	}
	if err := checkYAML(original, []byte(updated)); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(g.cfg.SiteConfig), err)
	}
	return []byte(updated), nil
}

// Apply deletes stale pages, then writes every planned file whose content changed.
// It returns the number of files written.
func (g *Generator) Apply(p *Plan) (int, error) {
	for _, path := range p.Deletes {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("failed to delete stale page: %w", err)
		}
		logger.Debug("Deleted stale page", map[string]interface{}{"path": path})
	}

	written := 0
	for _, w := range p.Writes {
		if fsutil.SameContent(w.Path, w.Data) {
			continue
		}
		if err := fsutil.WriteFileAtomic(w.Path, w.Data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", g.rel(w.Path), err)
		}
		written++
		logger.Debug("Wrote file", map[string]interface{}{"path": g.rel(w.Path)})
	}
	return written, nil
}

// Check compares the plan with the files on disk. It returns unified diffs of
// every file a run would change and whether the outputs are already current.
func (g *Generator) Check(p *Plan) (string, bool, error) {
	var b strings.Builder
	for _, path := range p.Deletes {
		before, err := os.ReadFile(path)
		if err != nil {
			return "", false, err
		}
		b.WriteString(fsutil.UnifiedDiff(g.rel(path), before, nil))
	}
	for _, w := range p.Writes {
		before, exists, err := fsutil.ReadIfExists(w.Path)
		if err != nil {
			return "", false, err
		}
		if !exists && len(w.Data) == 0 {
			fmt.Fprintf(&b, "+++ b/%s (new empty file)\n", g.rel(w.Path))
			continue
		}
		b.WriteString(fsutil.UnifiedDiff(g.rel(w.Path), before, w.Data))
	}
	return b.String(), b.Len() == 0, nil
}

func (g *Generator) rel(path string) string {
	if r, err := filepath.Rel(g.cfg.Root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
