package text

import (
	"context"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/registry"
)

func sortDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "sort",
		Short: "Sort input lines",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("reverse", "r", false, "Sort in descending order")
			fs.BoolP("unique", "u", false, "Drop duplicate lines")
		},
		Run: runSort,
	}
}

func runSort(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	reverse, _ := inv.Flags.GetBool("reverse")
	unique, _ := inv.Flags.GetBool("unique")

	lines, err := readLines(in)
	if err != nil {
		return 0, err
	}

	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(lines)))
	} else {
		sort.Strings(lines)
	}
	if unique {
		lines = dedupeAdjacent(lines, nil)
	}
	return 0, writeLines(out, lines)
}
