// Package output provides exit codes and diagnostic formatting for the pipekit CLI.
// Diagnostics always go to the error stream so piped data is never polluted.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow).SprintFunc()
	hintText     = color.New(color.Faint).SprintFunc()
)

// WriteError writes an "Error: ..." line to w.
func WriteError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", errorLabel("Error:"), fmt.Sprintf(format, args...))
}

// WriteWarning writes a "Warning: ..." line to w.
func WriteWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", warningLabel("Warning:"), fmt.Sprintf(format, args...))
}

// WriteHint writes an indented, dimmed hint line to w.
func WriteHint(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "  %s\n", hintText(fmt.Sprintf(format, args...)))
}
