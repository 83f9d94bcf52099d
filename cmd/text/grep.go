package text

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/registry"
)

func grepDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "grep",
		Short: "Keep lines matching a regular expression",
		Long:  "Keeps input lines matching PATTERN. Exits with status 1 when no line is selected.",
		Usage: "[-e] PATTERN",
		Args:  cobra.MaximumNArgs(1),
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("regexp", "e", "", "Pattern to match")
			fs.BoolP("invert-match", "v", false, "Keep lines that do not match")
			fs.BoolP("ignore-case", "i", false, "Match case-insensitively")
		},
		Run: runGrep,
	}
}

func runGrep(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	pattern, _ := inv.Flags.GetString("regexp")
	invert, _ := inv.Flags.GetBool("invert-match")
	ignoreCase, _ := inv.Flags.GetBool("ignore-case")

	// An empty pattern is valid and matches every line.
	switch {
	case inv.Flags.Changed("regexp"):
		if len(inv.Args) == 1 {
			return 0, &cmderr.ArgumentError{Command: "grep", Token: inv.Args[0], Cause: fmt.Errorf("unexpected argument with -e")}
		}
	case len(inv.Args) == 1:
		pattern = inv.Args[0]
	default:
		return 0, &cmderr.ArgumentError{Command: "grep", Cause: fmt.Errorf("a pattern is required")}
	}
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, &cmderr.ArgumentError{Command: "grep", Token: pattern, Cause: err}
	}

	lines, err := readLines(in)
	if err != nil {
		return 0, err
	}

	var kept []string
	for _, line := range lines {
		if re.MatchString(line) != invert {
			kept = append(kept, line)
		}
	}
	if err := writeLines(out, kept); err != nil {
		return 0, err
	}
	if len(kept) == 0 {
		return 1, nil
	}
	return 0, nil
}
