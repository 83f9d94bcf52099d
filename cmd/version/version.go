// Package version provides the version command for the pipekit CLI.
package version

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klytics/pipekit/internal/registry"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Register adds the version command. Unlike -V it writes into the pipeline.
func Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:  "version",
		Short: "Print the pipekit version",
		Args:  cobra.NoArgs,
		Run: func(_ context.Context, _ *registry.Invocation, _ io.Reader, out io.Writer) (int, error) {
			_, err := fmt.Fprintf(out, "pipekit %s\n", Version)
			return 0, err
		},
	})
}
