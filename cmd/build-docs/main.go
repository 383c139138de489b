package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/takak2166/curriculum-tools/internal/cli"
	"github.com/takak2166/curriculum-tools/internal/docs"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
)

const name = "build-docs"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		cli.Exit(name, err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common cli.Common
		check  bool
	)
	flags := cli.NewFlagSet(name, "Generates one documentation page per lesson README and rewrites the lesson navigation of mkdocs.yml.", &common)
	flags.BoolVar(&check, "check", false, "Report pending changes as a diff without writing; fails when outputs are stale")
	if err := cli.Parse(flags, args); err != nil {
		return err
	}

	env, err := cli.Setup(ctx, common)
	if err != nil {
		return err
	}

	ls, err := lessons.Discover(env.Config.Root)
	if err != nil {
		return err
	}
	gen := docs.NewGenerator(env.Config, env.Slug)
	plan, err := gen.Plan(ls)
	if err != nil {
		return err
	}

	if check {
		diff, current, err := gen.Check(plan)
		if err != nil {
			return err
		}
		if !current {
			fmt.Fprint(stdout, diff)
			return fmt.Errorf("documentation pages are out of date; run %s", name)
		}
		fmt.Fprintln(stdout, "Documentation pages are up to date")
		return nil
	}

	written, err := gen.Apply(plan)
	if err != nil {
		return err
	}
	logger.Info("Documentation updated", map[string]interface{}{
		"files_written": written,
		"stale_deleted": len(plan.Deletes),
	})
	fmt.Fprintf(stdout, "Generated %d lesson pages (%d skipped without README)\n", plan.Pages, plan.Skipped)
	return nil
}
