package text

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/pipekit/internal/registry"
)

// caseDescriptor returns the "upper" or "lower" command.
func caseDescriptor(name string) registry.Descriptor {
	convert := strings.ToUpper
	if name == "lower" {
		convert = strings.ToLower
	}
	return registry.Descriptor{
		Name:  name,
		Short: fmt.Sprintf("Convert the input to %s case", name),
		Args:  cobra.NoArgs,
		Run: func(_ context.Context, _ *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
			data, err := io.ReadAll(in)
			if err != nil {
				return 0, fmt.Errorf("could not read input: %w", err)
			}
			_, err = io.WriteString(out, convert(string(data)))
			return 0, err
		},
	}
}
