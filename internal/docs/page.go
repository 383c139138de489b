package docs

import (
	"fmt"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/models"
)

// MaterialsHeading starts the section that lists lesson-local scripts and notebooks
const MaterialsHeading = "## Additional Materials"

// StripFirstHeading removes the first heading line and any blank lines that
// would otherwise lead the page.
func StripFirstHeading(markdown string) string {
	lines := strings.SplitAfter(markdown, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			lines = append(lines[:i:i], lines[i+1:]...)
			break
		}
	}
	return trimLeadingBlankLines(strings.Join(lines, ""))
}

// Materials lists the lesson's scripts and notebooks as links to the hosted source
func Materials(l models.Lesson, k Linker) ([]models.MaterialLink, error) {
	files, err := lessons.SourceFiles(l)
	if err != nil {
		return nil, err
	}
	var out []models.MaterialLink
	for _, f := range files {
		u, ok := k.URL(l.Name + "/" + f.Name)
		if !ok {
			continue
		}
		out = append(out, models.MaterialLink{Name: f.Name, URL: u})
	}
	return out, nil
}

// MaterialsSection renders the materials bullet list, or "" when there is nothing to list
func MaterialsSection(links []models.MaterialLink) string {
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(MaterialsHeading + "\n\n")
	for _, l := range links {
		fmt.Fprintf(&b, "- [%s](%s)\n", l.Name, l.URL)
	}
	return b.String()
}

// NavLabel picks the navigation label for a lesson: its README heading, else
// "Day NN – <descriptor>", else "Day NN".
func NavLabel(l models.Lesson, heading string) string {
	if heading != "" {
		return heading
	}
	parts := strings.SplitN(l.Name, "_", 3)
	if len(parts) == 3 && parts[2] != "" {
		return fmt.Sprintf("Day %02d – %s", l.Day, strings.ReplaceAll(parts[2], "_", " "))
	}
	return fmt.Sprintf("Day %02d", l.Day)
}

// RenderPage builds the page body from a lesson README
func RenderPage(readme string, l models.Lesson, k Linker, materials []models.MaterialLink) string {
	body := StripFirstHeading(k.RewriteLinks(readme, l.Name))
	body = strings.TrimRight(body, "\r\n \t")

	section := MaterialsSection(materials)
	switch {
	case body == "" && section == "":
		return ""
	case body == "":
		return section
	case section == "":
		return body + "\n"
	}
	return body + "\n\n" + section
}

func trimLeadingBlankLines(s string) string {
	for {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			if strings.TrimSpace(s) == "" {
				return ""
			}
			return s
		}
		if strings.TrimSpace(s[:nl]) != "" {
			return s
		}
		s = s[nl+1:]
	}
}
