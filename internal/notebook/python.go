package notebook

import (
	"context"
	"regexp"
	"strings"

	"github.com/takak2166/curriculum-tools/internal/logger"
	"github.com/takak2166/curriculum-tools/internal/runner"
)

// DefaultPythonVersion is recorded when no interpreter can be probed.
const DefaultPythonVersion = "3.11.0"

var pythonVersion = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// DetectPythonVersion returns the major.minor.patch version of python3 on PATH.
// An explicit override wins; probe failures fall back to DefaultPythonVersion.
func DetectPythonVersion(ctx context.Context, override string, r runner.Runner) string {
	if v := pythonVersion.FindString(strings.TrimSpace(override)); v != "" {
		return v
	}
	if r == nil {
		return DefaultPythonVersion
	}
	out, err := r.Output(ctx, "python3", "--version")
	if err != nil {
		logger.Debug("python3 not available, using default version", map[string]interface{}{
			"version": DefaultPythonVersion,
		})
		return DefaultPythonVersion
	}
	if v := pythonVersion.FindString(strings.TrimSpace(strings.TrimPrefix(out, "Python"))); v != "" {
		return v
	}
	return DefaultPythonVersion
}
