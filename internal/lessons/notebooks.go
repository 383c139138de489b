package lessons

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/models"
)

// NotebookRef is a notebook found under a lesson directory
type NotebookRef struct {
	Name     string // base name
	RepoPath string // slash-separated path relative to the repository root
}

// Notebooks enumerates every .ipynb file below the lesson directories, skipping
// checkpoint directories, grouped by lesson slug. Each group is sorted by path.
func Notebooks(root string, ls []models.Lesson) (map[string][]NotebookRef, error) {
	out := make(map[string][]NotebookRef, len(ls))
	for _, l := range ls {
		var refs []NotebookRef
		err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != l.Dir && strings.HasSuffix(d.Name(), "checkpoints") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.ToLower(filepath.Ext(d.Name())) != ".ipynb" {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			refs = append(refs, NotebookRef{Name: d.Name(), RepoPath: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			continue
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].RepoPath < refs[j].RepoPath })
		out[l.Slug] = refs
	}
	return out, nil
}
