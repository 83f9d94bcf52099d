// Package text provides the built-in commands that transform the line stream.
package text

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klytics/pipekit/internal/registry"
)

// RegisterAll adds every text command to the registry.
func RegisterAll(r *registry.Registry) {
	r.Register(catDescriptor())
	r.Register(echoDescriptor())
	r.Register(grepDescriptor())
	r.Register(headDescriptor())
	r.Register(caseDescriptor("lower"))
	r.Register(sortDescriptor())
	r.Register(tailDescriptor())
	r.Register(teeDescriptor())
	r.Register(uniqDescriptor())
	r.Register(caseDescriptor("upper"))
	r.Register(wcDescriptor())
}

const maxLineSize = 16 * 1024 * 1024

// readLines reads every line of in without trailing newlines.
func readLines(in io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("could not read input: %w", err)
	}
	return lines, nil
}

func writeLines(out io.Writer, lines []string) error {
	w := bufio.NewWriter(out)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}
