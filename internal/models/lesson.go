package models

// Lesson represents one Day_<NN>[_<slug>] directory at the repository root
type Lesson struct {
	Day        int    // parsed from the directory name, unique across lessons
	Name       string // directory name, e.g. "Day_01_Intro"
	Dir        string // absolute path of the lesson directory
	Slug       string // lowercased Name with underscores replaced by hyphens
	Descriptor string // text after "Day_<NN>_", empty when absent
}

// PageFile returns the generated documentation page filename for the lesson
func (l Lesson) PageFile() string {
	return l.Slug + ".md"
}

// NavEntry is one line of the generated site navigation
type NavEntry struct {
	Label string
	File  string // relative to the docs directory, e.g. "lessons/day-01-intro.md"
}

// MaterialLink points at a lesson-local file in the source repository
type MaterialLink struct {
	Name string
	URL  string
}
