package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/klytics/pipekit/internal/audit"
	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/output"
	"github.com/klytics/pipekit/internal/parse"
	"github.com/klytics/pipekit/internal/registry"
)

// Executor runs pipeline segments strictly one after another. Only the first
// segment reads the real stdin and only the final buffer reaches stdout.
type Executor struct {
	registry   *registry.Registry
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	parseOpts  parse.Options
	translator *cmderr.Translator
	log        logrus.FieldLogger
	audit      *audit.Logger
	failFast   bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for segment tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Executor) { e.log = log }
}

// WithAudit records every segment to l.
func WithAudit(l *audit.Logger) Option {
	return func(e *Executor) { e.audit = l }
}

// WithFailFast stops the pipeline at the first execution failure instead of
// handing the partial output to the next segment.
func WithFailFast(failFast bool) Option {
	return func(e *Executor) { e.failFast = failFast }
}

// WithProgram sets the program name and version shown in help output.
func WithProgram(name, version string) Option {
	return func(e *Executor) {
		e.parseOpts.Program = name
		e.parseOpts.Version = version
	}
}

// WithDelimiter sets the delimiter shown in usage text.
func WithDelimiter(delimiter string) Option {
	return func(e *Executor) { e.parseOpts.Delimiter = delimiter }
}

// NewExecutor creates an executor over the given streams.
func NewExecutor(reg *registry.Registry, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		parseOpts: parse.Options{
			Program:   "pipekit",
			Stdout:    stdout,
			Stderr:    stderr,
			Delimiter: DefaultDelimiter,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	e.translator = cmderr.NewTranslator(e.parseOpts.Program, stderr, e.log)
	return e
}

// execContext carries the rolling buffer between segments.
type execContext struct {
	input io.Reader
	last  []byte
}

// advance makes out the input of the next segment and the pending output.
func (c *execContext) advance(out []byte) {
	c.last = out
	c.input = bytes.NewReader(out)
}

// Run executes segments in order and returns the status of the last one
// that ran. With no segments it prints usage.
func (e *Executor) Run(ctx context.Context, segments [][]string) int {
	if len(segments) == 0 {
		segments = [][]string{nil}
	}

	runID := audit.NewRunID()
	ec := &execContext{input: e.stdin}
	status := output.ExitOK

	for i, seg := range segments {
		name := e.segmentName(seg)
		log := e.log.WithFields(logrus.Fields{"run": runID, "segment": i, "command": name})
		log.Debugf("running segment %d/%d", i+1, len(segments))

		var (
			out          bytes.Buffer
			shortCircuit bool
		)
		start := time.Now()
		outcome := e.translator.Handle(name, func() (int, error) {
			res, err := parse.Parse(seg, e.registry, e.parseOpts)
			if err != nil {
				return 0, err
			}
			if res.ShortCircuit {
				shortCircuit = true
				return output.ExitOK, nil
			}
			inv := res.Invocation
			inv.Stderr = e.stderr
			return inv.Descriptor.Run(ctx, inv, ec.input, &out)
		})
		duration := time.Since(start)
		status = outcome.Status

		log.WithFields(logrus.Fields{
			"status":   outcome.Status,
			"outcome":  outcome.Kind.String(),
			"bytes":    out.Len(),
			"duration": duration.Round(time.Millisecond),
		}).Debug("segment finished")
		e.record(ctx, runID, i, seg, outcome, duration)

		if shortCircuit {
			log.Debug("help or version requested, stopping pipeline")
			return status
		}
		if outcome.Kind == cmderr.KindUsage {
			// The segment never ran; keep the previous output.
			break
		}
		ec.advance(out.Bytes())
		if outcome.Fatal() || (e.failFast && outcome.Kind == cmderr.KindExecution) {
			log.Debug("aborting pipeline")
			break
		}
	}

	if len(ec.last) > 0 {
		if _, err := e.stdout.Write(ec.last); err != nil {
			e.log.WithError(err).Warn("could not write pipeline output")
		}
	}
	return status
}

func (e *Executor) record(ctx context.Context, runID string, i int, seg []string, outcome cmderr.Outcome, d time.Duration) {
	entry := audit.Entry{
		RunID:      runID,
		Segment:    i,
		Command:    e.segmentName(seg),
		ExitCode:   outcome.Status,
		Outcome:    outcome.Kind.String(),
		DurationMs: d.Milliseconds(),
	}
	if len(seg) > 1 {
		entry.Args = seg[1:]
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	_ = e.audit.Log(ctx, entry)
}

func (e *Executor) segmentName(seg []string) string {
	if len(seg) == 0 || strings.HasPrefix(seg[0], "-") {
		return e.parseOpts.Program
	}
	return seg[0]
}
