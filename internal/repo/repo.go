// Package repo resolves the source-hosting identity of the curriculum and builds
// the absolute URLs that lesson pages link to.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/runner"
)

const (
	// DefaultSlug is used when neither GITHUB_REPOSITORY nor the git remote resolve.
	DefaultSlug = "mba-curriculum/84-day-mba"
	// DefaultBranch is the branch every generated URL points at.
	DefaultBranch = "main"

	hostingBase = "https://github.com"
)

// Kind selects the source-hosting view of a path
type Kind string

const (
	KindTree Kind = "tree" // directories
	KindBlob Kind = "blob" // files
)

// Slug identifies a hosted repository as owner/repo
type Slug struct {
	Owner string
	Repo  string
}

func (s Slug) String() string {
	return s.Owner + "/" + s.Repo
}

// ParseSlug parses "owner/repo"
func ParseSlug(v string) (Slug, error) {
	v = strings.TrimSpace(v)
	parts := strings.Split(v, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Slug{}, fmt.Errorf("invalid repository slug %q: expected owner/repo", v)
	}
	return Slug{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}, nil
}

// ParseRemoteURL extracts owner/repo from a git remote URL. Supported forms:
// https://host/owner/repo(.git), ssh://git@host/owner/repo(.git) and git@host:owner/repo(.git).
func ParseRemoteURL(remote string) (Slug, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return Slug{}, fmt.Errorf("empty remote URL")
	}
	var p string
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return Slug{}, fmt.Errorf("invalid remote URL %q: %w", remote, err)
		}
		p = u.Path
	} else if at := strings.Index(remote, ":"); at >= 0 {
		// scp-like syntax
		p = remote[at+1:]
	} else {
		return Slug{}, fmt.Errorf("unrecognized remote URL %q", remote)
	}
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 {
		return Slug{}, fmt.Errorf("remote URL %q has no owner/repo path", remote)
	}
	return ParseSlug(strings.Join(parts[len(parts)-2:], "/"))
}

// Resolve determines the hosting slug: the explicit override (GITHUB_REPOSITORY)
// wins, then the origin remote of the git checkout at root, then DefaultSlug.
func Resolve(ctx context.Context, root, override string, r runner.Runner) Slug {
	if override != "" {
		s, err := ParseSlug(override)
		if err == nil {
			return s
		}
		logger.Warn("Ignoring malformed GITHUB_REPOSITORY", err)
	}
	if r != nil {
		out, err := r.Output(ctx, "git", "-C", root, "config", "--get", "remote.origin.url")
		if err == nil {
			if s, perr := ParseRemoteURL(out); perr == nil {
				return s
			}
		} else {
			logger.Debug("No git remote found", map[string]interface{}{"error": err.Error()})
		}
	}
	s, _ := ParseSlug(DefaultSlug)
	return s
}

// EncodePath percent-encodes every segment of a slash-separated repository path
// while keeping the slashes themselves.
func EncodePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// EncodeQueryPath escapes every segment of a slash-separated repository path for
// use as a query value, keeping the slashes literal.
func EncodeQueryPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.QueryEscape(s)
	}
	return strings.Join(segs, "/")
}

// SourceURL returns https://github.com/<owner>/<repo>/<kind>/<branch>/<encoded-path>
func (s Slug) SourceURL(kind Kind, branch, repoPath string) string {
	if branch == "" {
		branch = DefaultBranch
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", hostingBase, s.Owner, s.Repo, kind, branch, EncodePath(repoPath))
}

// BinderURL returns the cloud-runtime launch URL for a notebook
func (s Slug) BinderURL(host, branch, notebookPath string) string {
	if branch == "" {
		branch = DefaultBranch
	}
	return fmt.Sprintf("https://%s/v2/gh/%s/%s/%s?filepath=%s", host, s.Owner, s.Repo, branch, EncodeQueryPath(notebookPath))
}
