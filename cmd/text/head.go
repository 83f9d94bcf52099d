package text

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/registry"
)

func headDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "head",
		Short: "Keep the first lines of the input",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("lines", "n", 10, "Number of lines to keep")
		},
		Run: runHead,
	}
}

func tailDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "tail",
		Short: "Keep the last lines of the input",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("lines", "n", 10, "Number of lines to keep")
		},
		Run: runTail,
	}
}

func lineCount(inv *registry.Invocation) (int, error) {
	n, _ := inv.Flags.GetInt("lines")
	if n < 0 {
		return 0, &cmderr.ArgumentError{
			Command: inv.Descriptor.Name,
			Token:   fmt.Sprint(n),
			Cause:   fmt.Errorf("--lines must not be negative"),
		}
	}
	return n, nil
}

func runHead(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	n, err := lineCount(inv)
	if err != nil {
		return 0, err
	}
	lines, err := readLines(in)
	if err != nil {
		return 0, err
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	return 0, writeLines(out, lines)
}

func runTail(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	n, err := lineCount(inv)
	if err != nil {
		return 0, err
	}
	lines, err := readLines(in)
	if err != nil {
		return 0, err
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return 0, writeLines(out, lines)
}
