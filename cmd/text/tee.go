package text

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/registry"
)

func teeDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "tee",
		Short: "Copy the input to a file and pass it through",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("file", "f", "", "File to write")
			fs.BoolP("append", "a", false, "Append instead of truncating")
		},
		Required: []string{"file"},
		Run:      runTee,
	}
}

func runTee(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	path, _ := inv.Flags.GetString("file")
	appendMode, _ := inv.Flags.GetBool("append")

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return 0, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(io.MultiWriter(out, f), in); err != nil {
		return 0, fmt.Errorf("could not write %s: %w", path, err)
	}
	return 0, f.Close()
}
