// Package cli holds the flag handling and startup sequence shared by the
// toolchain commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"pkt.systems/version"

	"github.com/takak2166/curriculum-tools/internal/config"
	"github.com/takak2166/curriculum-tools/internal/console"
	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/repo"
	"github.com/takak2166/curriculum-tools/internal/runner"
)

const modulePath = "github.com/takak2166/curriculum-tools"

const (
	ExitFatal = 1
	ExitUsage = 2
)

func init() {
	version.SetDefaultModule(modulePath)
}

// UsageError reports invalid command line input
type UsageError struct {
	Msg string

	shown bool // pflag already printed the message with the usage text
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Usagef returns a UsageError with a formatted message
func Usagef(format string, args ...interface{}) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// Common are the flags every command accepts
type Common struct {
	Root     string
	LogLevel string
}

// NewFlagSet creates the flag set of a command with the common flags registered.
// synopsis is printed below the version banner in --help.
func NewFlagSet(name, synopsis string, c *Common) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.StringVar(&c.Root, "root", ".", "Repository root")
	flags.StringVar(&c.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	flags.SortFlags = false
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintln(out, version.Module(), version.Current())
		fmt.Fprintf(out, "Usage: %s [flags]\n\n", name)
		fmt.Fprintln(out, console.Wrap(synopsis, console.Width()))
		fmt.Fprintln(out, "\nFlags:")
		flags.PrintDefaults()
	}
	return flags
}

// Parse parses args. Help requests and bad flags both come back as errors so
// that Exit can pick the status.
func Parse(flags *pflag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return &UsageError{Msg: err.Error(), shown: true}
	}
	if flags.NArg() > 0 {
		return Usagef("unexpected argument %q", flags.Arg(0))
	}
	return nil
}

// Env is the resolved environment of a command run
type Env struct {
	Config *config.Config
	Slug   repo.Slug
	Runner runner.Runner
}

// Setup loads the configuration for c.Root, initializes logging and resolves the
// hosting slug.
func Setup(ctx context.Context, c Common) (*Env, error) {
	cfg, err := config.Load(c.Root)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, &UsageError{Msg: fmt.Sprintf("invalid log level %q", cfg.LogLevel)}
	}

	r := runner.New()
	slug := repo.Resolve(ctx, cfg.Root, cfg.Repository, r)
	logger.Debug("Resolved configuration", map[string]interface{}{
		"root":       cfg.Root,
		"repository": slug.String(),
		"branch":     cfg.Branch,
	})
	return &Env{Config: cfg, Slug: slug, Runner: r}, nil
}

// ExitCode maps the error returned by a command to its process exit status
func ExitCode(err error) int {
	var usage *UsageError
	var coded interface{ ExitStatus() int }
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.As(err, &usage):
		return ExitUsage
	case errors.As(err, &coded) && coded.ExitStatus() > 0:
		return coded.ExitStatus()
	}
	return ExitFatal
}

// Exit reports err and terminates the process with the matching status
func Exit(name string, err error) {
	code := ExitCode(err)
	if code != 0 {
		report(os.Stderr, name, err)
	}
	os.Exit(code)
}

func report(w io.Writer, name string, err error) {
	var usage *UsageError
	if errors.As(err, &usage) {
		if usage.shown {
			return
		}
		fmt.Fprintf(w, "%s: %v\nRun '%s --help' for usage.\n", name, err, name)
		return
	}
	logger.Error("Command failed", err, map[string]interface{}{"command": name})
}
