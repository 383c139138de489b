// Package jupyterlite bundles the in-browser notebook runtime with the site
// and wires lesson pages to it and to the Binder cloud runtime.
package jupyterlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/takak2166/curriculum-tools/internal/config"
	"github.com/takak2166/curriculum-tools/internal/fsutil"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/models"
	"github.com/takak2166/curriculum-tools/internal/repo"
	"github.com/takak2166/curriculum-tools/internal/runner"
)

// InstallHint tells the user how to get the builder
const InstallHint = "pip install jupyterlite-core jupyterlab"

// ErrBuilderMissing means the JupyterLite builder could not be started
var ErrBuilderMissing = errors.New("jupyterlite builder is not installed")

// BuildError carries the exit code of a failed builder run
type BuildError struct {
	Code int
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("jupyterlite build exited with code %d: %v", e.Code, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ExitStatus is the status the integrator command exits with
func (e *BuildError) ExitStatus() int {
	return e.Code
}

// Integrator builds the JupyterLite distribution and updates lesson pages
type Integrator struct {
	cfg    *config.Config
	slug   repo.Slug
	runner runner.Runner
}

// Options controls a Run
type Options struct {
	SkipBuild bool // only rewire pages, keep the existing distribution
}

// Summary counts the pages touched by a Run
type Summary struct {
	Pages  int // pages changed
	Launch int // launch sections added
	Binder int // badge sections added
}

// New creates an Integrator
func New(cfg *config.Config, slug repo.Slug, r runner.Runner) *Integrator {
	return &Integrator{cfg: cfg, slug: slug, runner: r}
}

// CheckBuilder probes the builder with its version command
func (i *Integrator) CheckBuilder(ctx context.Context) error {
	out, err := i.runner.Output(ctx, i.cfg.LiteCommand, "lite", "--version")
	if err != nil {
		return fmt.Errorf("%w (%v); install it with: %s", ErrBuilderMissing, err, InstallHint)
	}
	logger.Debug("Found jupyterlite builder", map[string]interface{}{"version": out})
	return nil
}

// Build removes any previous distribution and builds a new one with the
// repository root as contents.
func (i *Integrator) Build(ctx context.Context) error {
	if err := os.RemoveAll(i.cfg.LiteOutputDir); err != nil {
		return fmt.Errorf("failed to remove previous distribution: %w", err)
	}
	logger.Info("Building JupyterLite distribution", map[string]interface{}{"output": i.cfg.LiteOutputDir})

	err := i.runner.Run(ctx, i.cfg.LiteCommand, "lite", "build",
		"--contents", i.cfg.Root,
		"--output-dir", i.cfg.LiteOutputDir,
	)
	if err == nil {
		return nil
	}
	if code := runner.ExitCode(err); code > 0 {
		return &BuildError{Code: code, Err: err}
	}
	if runner.IsNotFound(err) {
		return fmt.Errorf("%w (%v); install it with: %s", ErrBuilderMissing, err, InstallHint)
	}
	return err
}

// WirePages injects launch buttons and Binder badges into the generated page of
// every lesson that has notebooks. Missing or unreadable pages are skipped.
func (i *Integrator) WirePages(ls []models.Lesson) (Summary, error) {
	var sum Summary
	index, err := lessons.Notebooks(i.cfg.Root, ls)
	if err != nil {
		return sum, fmt.Errorf("failed to index notebooks: %w", err)
	}

	for _, l := range ls {
		notebooks := index[l.Slug]
		if len(notebooks) == 0 {
			continue
		}
		path := filepath.Join(i.cfg.LessonsDocsDir, l.PageFile())
		data, ok, err := fsutil.ReadIfExists(path)
		if err != nil || (ok && !utf8.Valid(data)) {
			logger.Warn("Skipping unreadable lesson page", err, map[string]interface{}{"page": l.PageFile()})
			continue
		}
		if !ok {
			logger.Debug("Lesson has notebooks but no page", map[string]interface{}{"lesson": l.Name})
			continue
		}

		page := string(data)
		page, launched := InjectLaunchButtons(page, notebooks)
		page, badged := InjectBinderBadges(page, notebooks, i.slug, i.cfg.BinderHost, i.cfg.Branch)
		if !launched && !badged {
			continue
		}
		if err := fsutil.WriteFileAtomic(path, []byte(page), 0o644); err != nil {
			return sum, fmt.Errorf("failed to write %s: %w", l.PageFile(), err)
		}
		sum.Pages++
		if launched {
			sum.Launch++
		}
		if badged {
			sum.Binder++
		}
	}
	return sum, nil
}

// WriteGuide writes the standalone JupyterLite guide page. It reports whether
// the file changed.
func (i *Integrator) WriteGuide() (bool, error) {
	data := []byte(guidePage)
	if fsutil.SameContent(i.cfg.GuidePage, data) {
		return false, nil
	}
	if err := fsutil.WriteFileAtomic(i.cfg.GuidePage, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write guide: %w", err)
	}
	return true, nil
}

// Run performs the whole integration: builder check, build, page wiring and guide
func (i *Integrator) Run(ctx context.Context, ls []models.Lesson, opts Options) (Summary, error) {
	if !opts.SkipBuild {
		if err := i.CheckBuilder(ctx); err != nil {
			return Summary{}, err
		}
		if err := i.Build(ctx); err != nil {
			return Summary{}, err
		}
	}

	sum, err := i.WirePages(ls)
	if err != nil {
		return sum, err
	}
	if _, err := i.WriteGuide(); err != nil {
		return sum, err
	}
	return sum, nil
}

const guidePage = `# JupyterLite Guide

Every lesson notebook can run directly in your browser through
[JupyterLite](https://jupyterlite.readthedocs.io/), a Jupyter distribution that
executes Python with WebAssembly. There is nothing to install and no server to
start.

[Open JupyterLite](../jupyterlite/lab/)

## Launching a lesson

Lesson pages with notebooks have an **Interactive Notebooks** section. Each
launch link opens the notebook in JupyterLite with the lesson files available
in the file browser.

## Saving your work

JupyterLite keeps edits in your browser's local storage. Download notebooks you
want to keep with *File → Download*, since clearing site data removes them.

## Running in the cloud

Lessons also carry Binder badges. Binder starts a full Jupyter server in the
cloud, which is slower to launch but supports every package the curriculum uses.
`
