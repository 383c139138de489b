package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/takak2166/curriculum-tools/internal/cli"
	"github.com/takak2166/curriculum-tools/internal/docs"
	"github.com/takak2166/curriculum-tools/internal/fsutil"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/models"
	"github.com/takak2166/curriculum-tools/internal/notion"
)

const name = "publish-notion"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		cli.Exit(name, err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common  cli.Common
		replace bool
		title   string
	)
	flags := cli.NewFlagSet(name, "Publishes the generated lesson pages to a Notion database below NOTION_PARENT_PAGE_ID. Run build-docs first.", &common)
	flags.BoolVar(&replace, "replace", false, "Archive and recreate lessons that were already published")
	flags.StringVar(&title, "database-title", "Lesson Library", "Title of the Notion database holding the lessons")
	if err := cli.Parse(flags, args); err != nil {
		return err
	}

	env, err := cli.Setup(ctx, common)
	if err != nil {
		return err
	}

	client, err := notion.New(env.Config.NotionAPIKey, env.Config.NotionParentPageID)
	if err != nil {
		return err
	}

	ls, err := lessons.Discover(env.Config.Root)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Found %d lessons to publish", len(ls)))

	db, err := client.EnsureLibrary(ctx, title)
	if err != nil {
		return err
	}

	var published, skipped, failed int
	for _, l := range ls {
		page, ok := loadPage(env.Config.LessonsDocsDir, l)
		if !ok {
			skipped++
			continue
		}

		outcome, err := client.PublishLesson(ctx, db, page, replace)
		if err != nil {
			logger.Error("Failed to publish lesson", err, map[string]interface{}{"lesson": l.Name})
			failed++
			continue
		}
		if outcome == notion.Skipped {
			skipped++
			continue
		}
		published++
		logger.Debug("Published lesson", map[string]interface{}{
			"lesson":  l.Name,
			"outcome": string(outcome),
		})
	}

	logger.Info("Publishing completed", map[string]interface{}{
		"total_lessons": len(ls),
		"published":     published,
		"skipped":       skipped,
		"failed":        failed,
	})
	fmt.Fprintf(stdout, "Published %d lessons (skipped %d)\n", published, skipped)
	if failed > 0 {
		return fmt.Errorf("%d lessons failed to publish", failed)
	}
	return nil
}

// loadPage reads the generated page of l. Lessons without a page are skipped.
func loadPage(dir string, l models.Lesson) (notion.Lesson, bool) {
	data, exists, err := fsutil.ReadIfExists(filepath.Join(dir, l.PageFile()))
	if err != nil {
		logger.Warn("Skipping lesson with unreadable page", err, map[string]interface{}{"lesson": l.Name})
		return notion.Lesson{}, false
	}
	if !exists {
		logger.Debug("Lesson has no generated page", map[string]interface{}{"lesson": l.Name})
		return notion.Lesson{}, false
	}

	// Pages drop the README title, so the label comes from the README itself
	var heading string
	if readme, found, err := lessons.ReadME(l); err == nil && found {
		heading, _ = lessons.FirstHeading(readme)
	}
	return notion.Lesson{
		Title:    docs.NavLabel(l, heading),
		Slug:     l.Slug,
		Day:      l.Day,
		Markdown: string(data),
	}, true
}
