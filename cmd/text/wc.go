package text

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/registry"
)

func wcDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "wc",
		Short: "Count lines, words and characters",
		Long:  "Prints line, word and character counts of the input. Selecting any of -l, -w or -m prints only those counts.",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("lines", "l", false, "Print the line count")
			fs.BoolP("words", "w", false, "Print the word count")
			fs.BoolP("chars", "m", false, "Print the character count")
		},
		Run: runWc,
	}
}

func runWc(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	showLines, _ := inv.Flags.GetBool("lines")
	showWords, _ := inv.Flags.GetBool("words")
	showChars, _ := inv.Flags.GetBool("chars")
	if !showLines && !showWords && !showChars {
		showLines, showWords, showChars = true, true, true
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return 0, fmt.Errorf("could not read input: %w", err)
	}
	text := string(data)

	var fields []string
	if showLines {
		fields = append(fields, fmt.Sprint(strings.Count(text, "\n")))
	}
	if showWords {
		fields = append(fields, fmt.Sprint(len(strings.Fields(text))))
	}
	if showChars {
		fields = append(fields, fmt.Sprint(utf8.RuneCountInString(text)))
	}

	_, err = fmt.Fprintln(out, strings.Join(fields, " "))
	return 0, err
}
