// Package runner is the single place where the toolchain starts subprocesses.
package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Runner starts external commands
type Runner interface {
	// Run executes the command with the configured stdout/stderr and waits for it.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// Exec runs commands with os/exec
type Exec struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Exec that inherits the process's standard streams
func New() *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Runner
func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "could not run %s", commandLine(name, args))
	}
	return nil
}

// Output implements Runner
func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "could not run %s", commandLine(name, args))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ExitCode extracts the process exit status from an error returned by Run.
// It returns -1 when err does not carry one.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// IsNotFound reports whether err means the executable could not be located.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
