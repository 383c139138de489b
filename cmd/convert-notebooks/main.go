package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/takak2166/curriculum-tools/internal/cli"
	"github.com/takak2166/curriculum-tools/internal/lessons"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/notebook"
)

const name = "convert-notebooks"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		cli.Exit(name, err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var common cli.Common
	flags := cli.NewFlagSet(name, "Converts every lesson Python script into a Jupyter notebook next to it.", &common)
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
	opts := notebook.Options{
		PythonVersion: notebook.DetectPythonVersion(ctx, env.Config.PythonVersion, env.Runner),
	}
	sum := notebook.ConvertAll(ls, opts)

	logger.Info("Notebook conversion finished", map[string]interface{}{
		"converted": sum.Converted,
		"unchanged": sum.Unchanged,
		"failed":    sum.Failed,
	})
	fmt.Fprintf(stdout, "Converted %d notebooks (%d failed)\n", sum.Total(), sum.Failed)
	return nil
}
