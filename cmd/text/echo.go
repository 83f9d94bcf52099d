package text

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/registry"
)

func echoDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "echo",
		Short: "Write arguments to the output, ignoring the input stream",
		Usage: "[words...]",
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("no-newline", "n", false, "Do not write a trailing newline")
		},
		Run: runEcho,
	}
}

func runEcho(_ context.Context, inv *registry.Invocation, _ io.Reader, out io.Writer) (int, error) {
	noNewline, _ := inv.Flags.GetBool("no-newline")

	text := strings.Join(inv.Args, " ")
	if !noNewline {
		text += "\n"
	}
	if _, err := io.WriteString(out, text); err != nil {
		return 0, err
	}
	return 0, nil
}
