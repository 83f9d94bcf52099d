// Package parse resolves one pipeline segment against the command registry
// and binds its options. Each call builds a fresh cobra command tree so flag
// state never carries over from one segment to the next.
package parse

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/registry"
)

// Options configures the top-level parser.
type Options struct {
	Program string
	Version string
	// Stdout receives help and version text.
	Stdout io.Writer
	Stderr io.Writer
	// Delimiter is shown in the usage line.
	Delimiter string
}

// Result is either a bound invocation or a handled global flag.
type Result struct {
	Invocation *registry.Invocation
	// ShortCircuit is set when help or version text was printed and no
	// command should run.
	ShortCircuit bool
}

// Parse resolves tokens to a bound invocation. An empty token list is a
// request for top-level help.
func Parse(tokens []string, reg *registry.Registry, opts Options) (*Result, error) {
	if len(tokens) == 0 {
		tokens = []string{"--help"}
	}

	if first := tokens[0]; !isGlobal(first) {
		if _, err := reg.Resolve(first); err != nil {
			return nil, err
		}
	}

	var bound *registry.Invocation
	root := newRootCommand(reg, opts, func(inv *registry.Invocation) { bound = inv })
	root.SetArgs(tokens)

	cmd, err := root.ExecuteC()
	if err != nil {
		var argErr *cmderr.ArgumentError
		if errors.As(err, &argErr) {
			return nil, err
		}
		name := root.Name()
		if cmd != nil {
			name = cmd.Name()
		}
		return nil, &cmderr.ArgumentError{Command: name, Token: offendingToken(err), Cause: err}
	}

	if bound == nil {
		return &Result{ShortCircuit: true}, nil
	}
	return &Result{Invocation: bound}, nil
}

func isGlobal(token string) bool {
	return strings.HasPrefix(token, "-") || token == "help"
}

func newRootCommand(reg *registry.Registry, opts Options, bind func(*registry.Invocation)) *cobra.Command {
	delim := opts.Delimiter
	if delim == "" {
		delim = "/"
	}

	root := &cobra.Command{
		Use:   opts.Program + " <command> [options...] [" + delim + " <command> [options...]]...",
		Short: "Run commands and chain them into an in-process pipeline",
		Long: `Run a registered command, or chain several with the ` + delim + ` delimiter.
Each command's output becomes the next command's input; only the last
command's output reaches standard output and its status is the exit code.

Use --shell to start an interactive pipeline shell.`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolP("version", "V", false, "Print the "+opts.Program+" version and exit")
	root.SetVersionTemplate(opts.Program + " {{.Version}}\n")
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &cmderr.ArgumentError{Command: c.Name(), Token: offendingToken(err), Cause: err}
	})

	for _, d := range reg.Descriptors() {
		root.AddCommand(newSubCommand(d, bind))
	}
	return root
}

func newSubCommand(d *registry.Descriptor, bind func(*registry.Invocation)) *cobra.Command {
	use := d.Name
	if d.Usage != "" {
		use += " " + d.Usage
	}
	sub := &cobra.Command{
		Use:                use,
		Short:              d.Short,
		Long:               d.Long,
		Args:               positionalArgs(d),
		DisableFlagParsing: d.RawArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bind(&registry.Invocation{Descriptor: d, Flags: cmd.Flags(), Args: args})
			return nil
		},
	}
	if d.Flags != nil {
		d.Flags(sub.Flags())
	}
	for _, name := range d.Required {
		_ = sub.MarkFlagRequired(name)
	}
	return sub
}

// positionalArgs wraps the descriptor's validator so that a surplus
// positional argument is reported as the offending token.
func positionalArgs(d *registry.Descriptor) cobra.PositionalArgs {
	if d.Args == nil {
		return nil
	}
	return func(cmd *cobra.Command, args []string) error {
		err := d.Args(cmd, args)
		if err == nil {
			return nil
		}
		// The longest accepted prefix ends right before the first extra token.
		for n := len(args) - 1; n >= 0; n-- {
			if d.Args(cmd, args[:n]) == nil {
				return &cmderr.ArgumentError{Command: d.Name, Token: args[n], Cause: errors.New("unexpected argument")}
			}
		}
		return &cmderr.ArgumentError{Command: d.Name, Cause: err}
	}
}

// tokenPatterns extract the offending token from pflag and cobra messages.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^unknown flag: (\S+)`),
	regexp.MustCompile(`^unknown shorthand flag: '.' in (\S+)`),
	regexp.MustCompile(`^flag needs an argument: '.' in (\S+)`),
	regexp.MustCompile(`^flag needs an argument: (\S+)`),
	regexp.MustCompile(`^invalid argument "(.*)" for `),
	regexp.MustCompile(`^bad flag syntax: (\S+)`),
}

var requiredPattern = regexp.MustCompile(`^required flag\(s\) "([^"]+)"`)

func offendingToken(err error) string {
	msg := err.Error()
	for _, re := range tokenPatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return m[1]
		}
	}
	if m := requiredPattern.FindStringSubmatch(msg); m != nil {
		return "--" + m[1]
	}
	return ""
}
