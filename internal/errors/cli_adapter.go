package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	ee, ok := As(err)
	if !ok {
		return 1
	}

	switch ee.Category {
	case CategoryValidation:
		return 2
	case CategoryConfig, CategoryDependency:
		return 7
	case CategoryIO, CategoryStorage:
		return 8
	case CategoryExtraction, CategoryTransform, CategoryShape, CategoryRender:
		return 11
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	ee, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return ee.Error()
	}

	switch ee.Category {
	case CategoryConfig, CategoryDependency, CategoryValidation:
		if ee.MetricID != "" {
			return fmt.Sprintf("%s: metric %q: %s", ee.Category, ee.MetricID, ee.Message)
		}
		return fmt.Sprintf("%s: %s", ee.Category, ee.Message)
	default:
		return ee.Error()
	}
}

// HandleError reports an error and exits the program with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	code := a.ExitCodeFor(err)
	if a.verbose || GetCategory(err) == CategoryInternal {
		a.logger.Error("command failed", "error", err, "category", string(GetCategory(err)))
	}

	fmt.Fprintln(a.out, a.FormatError(err))
	os.Exit(code)
}
