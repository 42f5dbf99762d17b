package cli

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"

	"github.com/grovetools/watch/errors"
)

// ErrorHandler provides user-friendly error messages.
type ErrorHandler struct {
	Verbose bool
	out     *termenv.Output
}

// NewErrorHandler creates a new error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		out:     termenv.NewOutput(os.Stderr),
	}
}

// Handle prints a message tailored to the error code and returns the error
// unchanged so callers can still propagate it.
func (h *ErrorHandler) Handle(err error) error {
	prefix := h.out.String("Error:").Foreground(termenv.ANSIRed).Bold()

	switch errors.GetCode(err) {
	case errors.ErrCodeRootInvalid:
		fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
		fmt.Fprintf(os.Stderr, "The watch path must be an existing directory.\n")

	case errors.ErrCodePatternInvalid:
		fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
		if watchErr, ok := err.(*errors.WatchError); ok {
			fmt.Fprintf(os.Stderr, "Check the pattern syntax: %v\n", watchErr.Details["pattern"])
		}

	case errors.ErrCodeWatchRootLost:
		fmt.Fprintf(os.Stderr, "%s the watched directory was removed or renamed\n", prefix)

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
		fmt.Fprintf(os.Stderr, "Create a watch.yml or pass --config.\n")

	case errors.ErrCodeNotARepository:
		fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
		fmt.Fprintf(os.Stderr, "Run inside a git repository or pass --no-git.\n")

	default:
		fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
	}

	if h.Verbose {
		if watchErr, ok := err.(*errors.WatchError); ok {
			fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", watchErr.ToJSON())
		}
	}
	return err
}
