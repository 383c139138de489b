// Package lessons discovers the Day_<NN>[_<slug>] lesson directories of the
// curriculum and reads their lesson-local files.
//
// The toolchain never writes into a lesson directory; everything here is read-only.
package lessons

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/models"
)

const (
	dayPrefix  = "Day_"
	readmeName = "README.md"
)

var (
	ErrMalformedLesson = errors.New("malformed lesson directory")
	ErrDuplicateDay    = errors.New("duplicate lesson day")
	ErrSlugCollision   = errors.New("lesson slug collision")
)

var lessonDirPattern = regexp.MustCompile(`^Day_(\d+)(?:_([A-Za-z0-9_]+))?$`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Discover returns the lessons found directly under root, sorted by day number
func Discover(root string) ([]models.Lesson, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	var out []models.Lesson
	byDay := make(map[int]string)
	bySlug := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dayPrefix) {
			continue
		}
		l, err := parse(root, e.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := bySlug[l.Slug]; ok {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrSlugCollision, prev, l.Name, l.PageFile())
		}
		if prev, ok := byDay[l.Day]; ok {
			return nil, fmt.Errorf("%w: %s and %s are both day %d", ErrDuplicateDay, prev, l.Name, l.Day)
		}
		byDay[l.Day] = l.Name
		bySlug[l.Slug] = l.Name
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func parse(root, name string) (models.Lesson, error) {
	m := lessonDirPattern.FindStringSubmatch(name)
	if m == nil {
		return models.Lesson{}, fmt.Errorf("%w: %s", ErrMalformedLesson, name)
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return models.Lesson{}, fmt.Errorf("%w: %s: %v", ErrMalformedLesson, name, err)
	}
	return models.Lesson{
		Day:        day,
		Name:       name,
		Dir:        filepath.Join(root, name),
		Slug:       Slug(name),
		Descriptor: m[2],
	}, nil
}

// Slug lowercases a directory name and replaces underscores with hyphens
func Slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// ReadME returns the lesson README with any byte-order mark removed.
// ok is false when the lesson has no README.
func ReadME(l models.Lesson) (string, bool, error) {
	b, err := os.ReadFile(filepath.Join(l.Dir, readmeName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(bytes.TrimPrefix(b, utf8BOM)), true, nil
}

// FirstHeading returns the text of the first Markdown heading line, if any
func FirstHeading(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#")), true
		}
	}
	return "", false
}

// SourceFile is a lesson-local script or notebook
type SourceFile struct {
	Name string // base name
	Path string // absolute path
	Kind string // "script" or "notebook"
}

// SourceFiles lists the lesson-local .py and .ipynb files sorted by name.
// Package bootstrap files (__init__.py) are excluded.
func SourceFiles(l models.Lesson) ([]SourceFile, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	var out []SourceFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind := sourceKind(e.Name())
		if kind == "" {
			continue
		}
		out = append(out, SourceFile{Name: e.Name(), Path: filepath.Join(l.Dir, e.Name()), Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Scripts filters SourceFiles down to Python scripts
func Scripts(l models.Lesson) ([]SourceFile, error) {
	files, err := SourceFiles(l)
	if err != nil {
		return nil, err
	}
	var out []SourceFile
	for _, f := range files {
		if f.Kind == "script" {
			out = append(out, f)
		}
	}
	return out, nil
}

func sourceKind(name string) string {
	if name == "__init__.py" {
		return ""
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".py":
		return "script"
	case ".ipynb":
		return "notebook"
	}
	return ""
}
