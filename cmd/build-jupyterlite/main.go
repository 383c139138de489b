package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/takak2166/curriculum-tools/internal/cli"
	"github.com/takak2166/curriculum-tools/internal/jupyterlite"
	"github.com/takak2166/curriculum-tools/internal/lessons"
)

const name = "build-jupyterlite"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		cli.Exit(name, err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common    cli.Common
		skipBuild bool
	)
	flags := cli.NewFlagSet(name, "Builds the JupyterLite distribution and adds launch buttons and Binder badges to lesson pages with notebooks.", &common)
	flags.BoolVar(&skipBuild, "skip-build", false, "Only update lesson pages and the guide, keep the existing distribution")
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
	integrator := jupyterlite.New(env.Config, env.Slug, env.Runner)
	sum, err := integrator.Run(ctx, ls, jupyterlite.Options{SkipBuild: skipBuild})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wired %d lesson pages (launch=%d, binder=%d)\n", sum.Pages, sum.Launch, sum.Binder)
	return nil
}
