package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/takak2166/curriculum-tools/internal/bench"
	"github.com/takak2166/curriculum-tools/internal/cli"
	"github.com/takak2166/curriculum-tools/internal/logger"
)

const name = "benchmark"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		cli.Exit(name, err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common  cli.Common
		repeats int
		output  string
		dataDir string
	)
	flags := cli.NewFlagSet(name, "Times the curriculum analytics scenarios against the bundled datasets and writes a JSON report.", &common)
	flags.IntVar(&repeats, "repeats", 3, "Number of runs per scenario")
	flags.StringVar(&output, "output", "benchmark-results.json", "Report path, relative to the working directory")
	flags.StringVar(&dataDir, "data-dir", "", "Dataset directory (default <root>/data)")
	if err := cli.Parse(flags, args); err != nil {
		return err
	}
	if repeats < 1 {
		return cli.Usagef("--repeats must be at least 1, got %d", repeats)
	}

	env, err := cli.Setup(ctx, common)
	if err != nil {
		return err
	}
	if dataDir == "" {
		dataDir = filepath.Join(env.Config.Root, "data")
	}

	h := &bench.Harness{DataDir: dataDir, Repeats: repeats}
	report, err := h.Run(bench.Scenarios())
	if err != nil {
		return err
	}
	if err := bench.WriteReport(output, report); err != nil {
		return err
	}

	bench.PrintSummary(stdout, report)
	logger.Debug("Benchmark report written", map[string]interface{}{"path": output})
	fmt.Fprintf(stdout, "Wrote report to %s\n", output)
	return nil
}
