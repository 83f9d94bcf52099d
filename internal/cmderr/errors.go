// Package cmderr defines the dispatcher's error taxonomy and the translator
// that turns any failure into a status code and a diagnostic line.
package cmderr

import (
	"context"
	"errors"
	"fmt"
	"syscall"
)

// UnknownCommandError is returned when a segment names a command that is
// not in the registry.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// ArgumentError is a schema validation failure for one command.
// Token is the offending token when it can be identified.
type ArgumentError struct {
	Command string
	Token   string
	Cause   error
}

func (e *ArgumentError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: invalid argument %q: %s", e.Command, e.Token, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Cause)
}

func (e *ArgumentError) Unwrap() error { return e.Cause }

// ExecutionError is a failure raised from within a command's own logic.
// A non-zero Status overrides the default execution exit code.
type ExecutionError struct {
	Command string
	Status  int
	Cause   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// UnrecoverableError aborts the whole pipeline instead of handing partial
// output to the next segment.
type UnrecoverableError struct {
	Cause error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("aborted: %s", e.Cause)
}

func (e *UnrecoverableError) Unwrap() error { return e.Cause }

// Unrecoverable marks err as fatal for the running pipeline.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &UnrecoverableError{Cause: err}
}

// IsUnrecoverable reports whether err must abort the pipeline. Cancellation
// and broken pipes count even when a command did not mark them.
func IsUnrecoverable(err error) bool {
	var u *UnrecoverableError
	if errors.As(err, &u) {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.EPIPE)
}
