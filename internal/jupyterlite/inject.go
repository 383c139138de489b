package jupyterlite

import (
	"fmt"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/repo"
)

const (
	LaunchHeading = "## 🚀 Interactive Notebooks"
	BadgeHeading  = "### ☁️ Run in the Cloud"

	// BadgeImage is the well-known Binder badge
	BadgeImage = "https://mybinder.org/badge_logo.svg"

	// launchBase is the JupyterLite lab entry point relative to a lesson page
	launchBase = "../../jupyterlite/lab"

	materialsHeading = "## Additional Materials"
)

var launchSentinels = []string{"Interactive Notebooks", "🚀"}

// LaunchURL returns the in-browser runtime URL for a repo-relative notebook path
func LaunchURL(repoPath string) string {
	return launchBase + "?path=" + repo.EncodeQueryPath(repoPath)
}

// HasLaunchSection reports whether a page already links to the in-browser runtime
func HasLaunchSection(page string) bool {
	for _, s := range launchSentinels {
		if strings.Contains(page, s) {
			return true
		}
	}
	return false
}

// InjectLaunchButtons adds the launch section to page unless it already has one.
// The section goes right before "Additional Materials" when present, else at the end.
func InjectLaunchButtons(page string, notebooks []lessons.NotebookRef) (string, bool) {
	if len(notebooks) == 0 || HasLaunchSection(page) {
		return page, false
	}

	var b strings.Builder
	b.WriteString(LaunchHeading + "\n\n")
	b.WriteString("Run these notebooks in your browser with JupyterLite. Nothing needs to be installed.\n\n")
	for _, nb := range notebooks {
		fmt.Fprintf(&b, "- [Launch %s](%s)\n", nb.Name, LaunchURL(nb.RepoPath))
	}

	lines := splitLines(page)
	at := headingIndex(lines, materialsHeading, 0)
	if at < 0 {
		at = len(lines)
	}
	return insertAt(lines, at, b.String()), true
}

// InjectBinderBadges adds one cloud-runtime badge per notebook unless the page
// already mentions host. Badges follow the launch section when there is one,
// otherwise they go before "Additional Materials" or at the end.
func InjectBinderBadges(page string, notebooks []lessons.NotebookRef, slug repo.Slug, host, branch string) (string, bool) {
	if len(notebooks) == 0 || strings.Contains(page, host) {
		return page, false
	}

	var b strings.Builder
	b.WriteString(BadgeHeading + "\n\n")
	for _, nb := range notebooks {
		fmt.Fprintf(&b, "- [![Open %s in Binder](%s)](%s)\n", nb.Name, BadgeImage, slug.BinderURL(host, branch, nb.RepoPath))
	}

	lines := splitLines(page)
	var at int
	if launch := launchIndex(lines); launch >= 0 {
		at = nextSection(lines, launch+1)
	} else {
		at = headingIndex(lines, materialsHeading, 0)
	}
	if at < 0 {
		at = len(lines)
	}
	return insertAt(lines, at, b.String()), true
}

// launchIndex finds the heading line of the launch section
func launchIndex(lines []string) int {
	for i, line := range lines {
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if HasLaunchSection(line) {
			return i
		}
	}
	return -1
}

// nextSection returns the index of the next level-two (or higher) heading at or after from
func nextSection(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") || strings.HasPrefix(lines[i], "# ") {
			return i
		}
	}
	return -1
}

func headingIndex(lines []string, heading string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == heading {
			return i
		}
	}
	return -1
}

// insertAt places block before lines[at], separated from its neighbours by one blank line
func insertAt(lines []string, at int, block string) string {
	before := strings.TrimRight(strings.Join(lines[:at], ""), "\r\n \t")
	after := strings.Join(lines[at:], "")

	var b strings.Builder
	if before != "" {
		b.WriteString(before + "\n\n")
	}
	b.WriteString(block)
	if after != "" {
		b.WriteString("\n" + after)
	}
	return b.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
