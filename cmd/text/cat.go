package text

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klytics/pipekit/internal/registry"
)

func catDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:  "cat",
		Short: "Concatenate files and the input stream",
		Long:  "Copies each named file to the output in order. With no files, or for '-', the input stream is copied instead.",
		Usage: "[files...]",
		Run:   runCat,
	}
}

func runCat(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	if len(inv.Args) == 0 {
		if _, err := io.Copy(out, in); err != nil {
			return 0, fmt.Errorf("could not copy input: %w", err)
		}
		return 0, nil
	}

	for _, path := range inv.Args {
		if path == "-" {
			if _, err := io.Copy(out, in); err != nil {
				return 0, fmt.Errorf("could not copy input: %w", err)
			}
			continue
		}
		if err := copyFile(out, path); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func copyFile(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s; check that the path is correct", path)
		}
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	return nil
}
