package notebook

import (
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/models"
)

// Summary counts the outcome of a ConvertAll run
type Summary struct {
	Converted int // notebooks written or rewritten
	Unchanged int // notebooks already up to date
	Failed    int // scripts skipped with a warning
}

// Total returns the number of notebooks that exist after the run
func (s Summary) Total() int {
	return s.Converted + s.Unchanged
}

// ConvertAll converts every lesson script in day order. A failing script or an
// unreadable lesson directory is logged and skipped; it never aborts the batch.
func ConvertAll(ls []models.Lesson, opts Options) Summary {
	var sum Summary
	for _, l := range ls {
		scripts, err := lessons.Scripts(l)
		if err != nil {
			logger.Warn("Skipping unreadable lesson", err, map[string]interface{}{"lesson": l.Name})
			continue
		}
		for _, s := range scripts {
			out, changed, err := Convert(s.Path, opts)
			if err != nil {
				sum.Failed++
				logger.Warn("Failed to convert script", err, map[string]interface{}{
					"lesson": l.Name,
					"script": s.Name,
				})
				continue
			}
			if changed {
				sum.Converted++
				logger.Debug("Wrote notebook", map[string]interface{}{"path": out})
			} else {
				sum.Unchanged++
			}
		}
	}
	return sum
}
