package text

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/registry"
)

func uniqDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "uniq",
		Short: "Collapse adjacent duplicate lines",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("count", "c", false, "Prefix lines with the number of occurrences")
		},
		Run: runUniq,
	}
}

func runUniq(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	count, _ := inv.Flags.GetBool("count")

	lines, err := readLines(in)
	if err != nil {
		return 0, err
	}

	var counts []int
	lines = dedupeAdjacent(lines, &counts)
	if count {
		for i := range lines {
			lines[i] = fmt.Sprintf("%7d %s", counts[i], lines[i])
		}
	}
	return 0, writeLines(out, lines)
}

// dedupeAdjacent collapses runs of equal lines. When counts is non-nil it
// receives the length of each run.
func dedupeAdjacent(lines []string, counts *[]int) []string {
	var result []string
	for i, line := range lines {
		if i > 0 && line == lines[i-1] {
			if counts != nil {
				(*counts)[len(*counts)-1]++
			}
			continue
		}
		result = append(result, line)
		if counts != nil {
			*counts = append(*counts, 1)
		}
	}
	return result
}
