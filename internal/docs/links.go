package docs

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/repo"
)

// linkPattern matches inline Markdown links: [text](target "optional title").
// The text may hold one level of brackets, as in badge links [![alt](img)](target),
// and the title may be quoted with "", '' or ().
var linkPattern = regexp.MustCompile(`\[((?:[^\[\]]|\[[^\[\]]*\])*)\]\(([^)\s]+)(\s+(?:"[^"]*"|'[^']*'|\([^)]*\)))?\)`)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// Linker turns repository paths into absolute source-hosting URLs
type Linker struct {
	Root   string
	Slug   repo.Slug
	Branch string
}

// RewriteLinks replaces relative link targets that resolve to an existing path
// in the repository with absolute source-hosting URLs. lessonDir is the lesson
// directory, relative to the root, that targets are resolved against. Titles,
// query strings and fragments are kept; everything else is left as written.
func (k Linker) RewriteLinks(markdown, lessonDir string) string {
	return linkPattern.ReplaceAllStringFunc(markdown, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		text, target, title := sub[1], sub[2], sub[3]
		inner := text
		if strings.Contains(text, "](") {
			inner = k.RewriteLinks(text, lessonDir)
		}
		rewritten, ok := k.resolve(target, lessonDir)
		if !ok {
			return "[" + inner + m[1+len(text):]
		}
		return "[" + inner + "](" + rewritten + title + ")"
	})
}

// URL returns the source-hosting URL for a repo-relative path, choosing tree or blob
func (k Linker) URL(repoPath string) (string, bool) {
	info, err := os.Stat(filepath.Join(k.Root, filepath.FromSlash(repoPath)))
	if err != nil {
		return "", false
	}
	kind := repo.KindBlob
	if info.IsDir() {
		kind = repo.KindTree
	}
	return k.Slug.SourceURL(kind, k.Branch, repoPath), true
}

func (k Linker) resolve(target, lessonDir string) (string, bool) {
	if !isRelative(target) {
		return "", false
	}

	p, suffix := target, ""
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p, suffix = p[:i], p[i:]
	}
	if p == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}

	var rel string
	if strings.HasPrefix(p, "/") {
		rel = path.Clean(strings.TrimLeft(p, "/"))
	} else {
		rel = path.Clean(path.Join(filepath.ToSlash(lessonDir), p))
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	u, ok := k.URL(rel)
	if !ok {
		return "", false
	}
	return u + suffix, true
}

func isRelative(target string) bool {
	switch {
	case target == "":
		return false
	case strings.HasPrefix(target, "#"):
		return false
	case strings.HasPrefix(target, "//"):
		return false
	case schemePattern.MatchString(target):
		// covers http:, https:, mailto: and friends
		return false
	}
	return true
}
