// Package config loads the settings shared by the toolchain commands.
//
// Settings come from built-in defaults, then an optional <root>/.env file, then
// the process environment. Paths are always resolved against the explicit
// repository root; nothing depends on the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/takak2166/curriculum-tools/internal/repo"
)

// Config holds the resolved toolchain settings
type Config struct {
	Root string

	DocsDir        string // <root>/docs
	LessonsDocsDir string // <root>/docs/lessons
	SiteConfig     string // <root>/mkdocs.yml
	LiteOutputDir  string // <root>/site/jupyterlite
	GuidePage      string // <root>/docs/jupyterlite-guide.md

	LogLevel      string
	Repository    string // owner/repo override from GITHUB_REPOSITORY, may be empty
	Branch        string
	PythonVersion string // empty means probe the interpreter
	LiteCommand   string
	BinderHost    string

	NotionAPIKey       string
	NotionParentPageID string
}

// Default returns the configuration for root without consulting the environment
func Default(root string) *Config {
	return &Config{
		Root:           root,
		DocsDir:        filepath.Join(root, "docs"),
		LessonsDocsDir: filepath.Join(root, "docs", "lessons"),
		SiteConfig:     filepath.Join(root, "mkdocs.yml"),
		LiteOutputDir:  filepath.Join(root, "site", "jupyterlite"),
		GuidePage:      filepath.Join(root, "docs", "jupyterlite-guide.md"),
		LogLevel:       "info",
		Branch:         repo.DefaultBranch,
		LiteCommand:    "jupyter",
		BinderHost:     "mybinder.org",
	}
}

// Load resolves root, reads <root>/.env when present and applies environment overrides
func Load(root string) (*Config, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}

	// Variables already present in the environment take precedence over .env
	if err := godotenv.Load(filepath.Join(abs, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default(abs)
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.Repository = env("GITHUB_REPOSITORY")
	if v := env("CURRICULUM_BRANCH"); v != "" {
		cfg.Branch = v
	}
	cfg.PythonVersion = env("NOTEBOOK_PYTHON_VERSION")
	if v := env("JUPYTERLITE_COMMAND"); v != "" {
		cfg.LiteCommand = v
	}
	if v := env("JUPYTERLITE_OUTPUT_DIR"); v != "" {
		cfg.LiteOutputDir = resolve(abs, v)
	}
	if v := env("BINDER_HOST"); v != "" {
		cfg.BinderHost = strings.TrimSuffix(strings.TrimPrefix(v, "https://"), "/")
	}
	cfg.NotionAPIKey = env("NOTION_API_KEY")
	cfg.NotionParentPageID = env("NOTION_PARENT_PAGE_ID")

	if cfg.LiteOutputDir == abs {
		return nil, fmt.Errorf("JUPYTERLITE_OUTPUT_DIR must not be the repository root")
	}
	return cfg, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
