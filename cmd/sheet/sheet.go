// Package sheet provides commands that move tab-separated data in and out
// of Excel workbooks.
package sheet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/formats/xlsx"
	"github.com/klytics/pipekit/internal/registry"
)

// RegisterAll adds the workbook commands to the registry.
func RegisterAll(r *registry.Registry) {
	r.Register(registry.Descriptor{
		Name:  "from-xlsx",
		Short: "Emit a worksheet as tab-separated lines",
		Long:  "Reads an .xlsx workbook from --file, or from the input stream when --file is omitted, and writes one sheet as tab-separated lines.",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("file", "f", "", "Workbook to read (default: the input stream)")
			fs.String("sheet", "", "Sheet to read (default: the first sheet)")
		},
		Run: runFromXLSX,
	})
	r.Register(registry.Descriptor{
		Name:  "to-xlsx",
		Short: "Save tab-separated input as a workbook and pass it through",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("file", "f", "", "Workbook to write")
			fs.String("sheet", "Sheet1", "Name of the sheet to write")
		},
		Required: []string{"file"},
		Run:      runToXLSX,
	})
}

func runFromXLSX(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	path, _ := inv.Flags.GetString("file")
	sheetName, _ := inv.Flags.GetString("sheet")

	var wb *xlsx.Workbook
	var err error
	if path == "" {
		data, readErr := io.ReadAll(in)
		if readErr != nil {
			return 0, fmt.Errorf("could not read input: %w", readErr)
		}
		if len(data) == 0 {
			return 0, fmt.Errorf("no input provided; pass --file or pipe an .xlsx workbook")
		}
		wb, err = xlsx.ReadBytes(data)
	} else {
		if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			return 0, fmt.Errorf("expected an .xlsx file, got %q", path)
		}
		wb, err = xlsx.ReadFile(path)
	}
	if err != nil {
		return 0, err
	}

	sheet, err := wb.GetSheet(sheetName)
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(out, sheet.ToTSV())
	return 0, err
}

func runToXLSX(_ context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
	path, _ := inv.Flags.GetString("file")
	sheetName, _ := inv.Flags.GetString("sheet")

	data, err := io.ReadAll(in)
	if err != nil {
		return 0, fmt.Errorf("could not read input: %w", err)
	}

	wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: sheetName, Rows: xlsx.ParseTSV(string(data))}}}
	if err := xlsx.WriteFile(wb, path); err != nil {
		return 0, err
	}

	_, err = out.Write(data)
	return 0, err
}
