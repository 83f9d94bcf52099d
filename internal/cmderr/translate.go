package cmderr

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/klytics/pipekit/internal/output"
)

// Kind classifies the outcome of one translated call.
type Kind int

const (
	KindReturned      Kind = iota // the command returned without error
	KindUsage                     // unknown command or argument error
	KindExecution                 // the command itself failed
	KindUnrecoverable             // the pipeline must stop
)

func (k Kind) String() string {
	switch k {
	case KindReturned:
		return "returned"
	case KindUsage:
		return "usage"
	case KindExecution:
		return "execution"
	case KindUnrecoverable:
		return "unrecoverable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the translated result of a call.
type Outcome struct {
	Status int
	Kind   Kind
	Err    error
}

// Fatal reports whether later segments must not run.
func (o Outcome) Fatal() bool {
	return o.Kind == KindUsage || o.Kind == KindUnrecoverable
}

// Classify maps an error to its Kind. A nil error is KindReturned.
func Classify(err error) Kind {
	if err == nil {
		return KindReturned
	}
	var unknown *UnknownCommandError
	var argErr *ArgumentError
	switch {
	case errors.As(err, &unknown), errors.As(err, &argErr):
		return KindUsage
	case IsUnrecoverable(err):
		return KindUnrecoverable
	default:
		return KindExecution
	}
}

// Translator converts failures into status codes and writes the
// human-readable cause to Stderr.
type Translator struct {
	Program string
	Stderr  io.Writer
	Log     logrus.FieldLogger
}

// NewTranslator returns a Translator writing diagnostics to stderr.
func NewTranslator(program string, stderr io.Writer, log logrus.FieldLogger) *Translator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Translator{Program: program, Stderr: stderr, Log: log}
}

// Handle runs call for the named command and translates its result. It
// never panics: a panic inside call becomes an ExecutionError.
func (t *Translator) Handle(command string, call func() (int, error)) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			t.Log.WithField("command", command).Debugf("recovered panic: %v\n%s", r, debug.Stack())
			out = t.Report(command, &ExecutionError{Command: command, Cause: fmt.Errorf("panic: %v", r)})
		}
	}()

	status, err := call()
	if err == nil {
		return Outcome{Status: status, Kind: KindReturned}
	}
	return t.Report(command, err)
}

// Report writes err to the diagnostic stream and returns its Outcome.
func (t *Translator) Report(command string, err error) Outcome {
	kind := Classify(err)
	out := Outcome{Kind: kind, Err: err}

	switch kind {
	case KindReturned:
		return out
	case KindUsage:
		out.Status = output.ExitUserError
		output.WriteError(t.Stderr, "%s", err)
		var unknown *UnknownCommandError
		if errors.As(err, &unknown) {
			output.WriteHint(t.Stderr, "run '%s --help' for the list of commands", t.Program)
		}
	case KindUnrecoverable:
		out.Status = output.ExitAborted
		output.WriteError(t.Stderr, "%s: %s", command, err)
	case KindExecution:
		out.Status = output.ExitSystemError
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			execErr = &ExecutionError{Command: command, Cause: err}
			out.Err = execErr
		}
		if execErr.Status != 0 {
			out.Status = execErr.Status
		}
		output.WriteError(t.Stderr, "%s", execErr)
	}

	t.Log.WithFields(logrus.Fields{
		"command": command,
		"kind":    kind.String(),
		"status":  out.Status,
	}).Debug("translated failure")
	return out
}
