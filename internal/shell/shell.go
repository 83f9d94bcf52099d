// Package shell provides the interactive pipekit REPL. Each line is split into
// tokens and run as one pipeline.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/pipekit/internal/output"
)

// Runner executes one tokenized pipeline and returns its exit status.
// It is supplied by the cmd package to avoid an import cycle.
type Runner func(ctx context.Context, tokens []string, stdout, stderr io.Writer) int

// ErrUnterminatedQuote is returned by Fields when a quote is never closed.
var ErrUnterminatedQuote = errors.New("unterminated quote")

var builtins = []string{"exit", "help", "history", "quit"}

// StatusError reports a pipeline that ended with a non-zero status.
type StatusError struct {
	Status int
	// Diagnostics is what the pipeline wrote to its diagnostic stream.
	Diagnostics string
}

func (e *StatusError) Error() string {
	if e.Diagnostics != "" {
		return e.Diagnostics
	}
	return fmt.Sprintf("exit status %d", e.Status)
}

// Session manages an interactive shell session.
type Session struct {
	Runner         Runner
	Commands       []string
	HistoryFile    string
	CommandHistory []string
	LastOutput     string
	LastStatus     int
	StartTime      time.Time

	mu        sync.RWMutex
	delimiter string

	out io.Writer
	err io.Writer
}

// NewSession creates a session that runs lines through runner. commands is
// the registry listing used for help and completion.
func NewSession(runner Runner, commands []string, historyFile string) *Session {
	if historyFile != "" {
		_ = os.MkdirAll(filepath.Dir(historyFile), 0o755)
	}
	return &Session{
		Runner:      runner,
		Commands:    commands,
		delimiter:   "/",
		HistoryFile: historyFile,
		StartTime:   time.Now(),
		out:         os.Stdout,
		err:         os.Stderr,
	}
}

// SetDelimiter changes the delimiter used for help and completion. It may
// be called while the session is running.
func (s *Session) SetDelimiter(d string) {
	s.mu.Lock()
	s.delimiter = d
	s.mu.Unlock()
}

// Delimiter returns the current pipeline delimiter.
func (s *Session) Delimiter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delimiter
}

// SetOutput redirects the session's own messages and command output.
func (s *Session) SetOutput(out, errOut io.Writer) {
	s.out = out
	s.err = errOut
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	if s.Runner == nil {
		return fmt.Errorf("shell runner not configured")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pipekit> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    completer{s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "pipekit interactive shell")
	fmt.Fprintf(s.out, "Chain commands with '%s'. Type 'help' for commands, 'exit' to quit.\n\n", s.Delimiter())

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if done := s.Handle(ctx, line); done {
			return nil
		}
	}
	return nil
}

// Handle processes one input line and reports whether the session should end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.CommandHistory = append(s.CommandHistory, line)

	switch line {
	case "exit", "quit":
		fmt.Fprintf(s.out, "\nSession ended. %d pipelines run in %s.\n",
			len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
		return true
	case "help":
		s.printHelp()
	case "history":
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(s.out, "  %d  %s\n", i+1, cmd)
		}
	default:
		out, err := s.Eval(ctx, line)
		if out != "" {
			fmt.Fprint(s.out, out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(s.out)
			}
		}
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.Diagnostics != "":
			fmt.Fprintln(s.err, statusErr.Diagnostics)
		case err != nil:
			output.WriteError(s.err, "%s", err)
		}
	}
	return false
}

// Eval runs a single pipeline line with an empty initial input and returns
// its output. A non-zero status is reported as a *StatusError.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	if s.Runner == nil {
		return "", fmt.Errorf("shell runner not configured")
	}

	tokens, err := Fields(line)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", nil
	}

	var stdout, stderr bytes.Buffer
	status := s.Runner(ctx, tokens, &stdout, &stderr)

	out := stdout.String()
	s.LastOutput = out
	s.LastStatus = status

	if status == output.ExitOK {
		if errOut := stderr.String(); errOut != "" {
			fmt.Fprint(s.err, errOut)
		}
		return out, nil
	}
	return out, &StatusError{Status: status, Diagnostics: strings.TrimSpace(stderr.String())}
}

// Fields splits a line into tokens. Single and double quotes group words and
// a backslash outside single quotes escapes the next character.
func Fields(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inToken bool
		quote   byte
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\') {
				i++
				current.WriteByte(line[i])
			} else {
				current.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == '\\' && i+1 < len(line):
			i++
			current.WriteByte(line[i])
			inToken = true
		case c == ' ' || c == '\t':
			if inToken {
				args = append(args, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteByte(c)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		args = append(args, current.String())
	}
	return args, nil
}

// Complete returns tab-completion candidates for the word being typed.
// A command is expected at the start of the line and after each delimiter.
func (s *Session) Complete(input string) []string {
	tokens := strings.Fields(input)
	prefix := ""
	if len(tokens) > 0 && !strings.HasSuffix(input, " ") {
		prefix = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] != s.Delimiter() {
		return nil
	}

	candidates := s.Commands
	if len(tokens) == 0 {
		candidates = append(append([]string{}, s.Commands...), builtins...)
	}
	var matches []string
	for _, name := range candidates {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out)
	for _, name := range s.Commands {
		fmt.Fprintf(s.out, "  %s\n", name)
	}
	fmt.Fprintln(s.out)
	d := s.Delimiter()
	fmt.Fprintf(s.out, "Chain commands with '%s', e.g. cat notes.txt %s grep todo %s wc -l\n", d, d, d)
	fmt.Fprintln(s.out, "Use '<command> --help' for options.")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Shell commands:")
	fmt.Fprintln(s.out, "  help       show this help")
	fmt.Fprintln(s.out, "  history    show pipeline history")
	fmt.Fprintln(s.out, "  exit       exit the shell")
}

// completer adapts Session.Complete to readline. Candidates are returned
// as the suffix still to be typed.
type completer struct {
	s *Session
}

func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	input := string(line[:pos])
	prefix := input
	if i := strings.LastIndexAny(input, " \t"); i >= 0 {
		prefix = input[i+1:]
	}

	var candidates [][]rune
	for _, name := range c.s.Complete(input) {
		candidates = append(candidates, []rune(strings.TrimPrefix(name, prefix)+" "))
	}
	return candidates, len([]rune(prefix))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
