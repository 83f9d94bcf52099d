//go:build ignore

// This program generates the sample workbook used by the benchmarks.
package main

import (
	"fmt"
	"os"

	"github.com/klytics/pipekit/internal/formats/xlsx"
)

func main() {
	if err := generateXlsx(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

func generateXlsx() error {
	rows := [][]string{{"node1", "label", "node2", "weight"}}
	for i := 0; i < 500; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("Q%d", i),
			fmt.Sprintf("P%d", i%7),
			fmt.Sprintf("Q%d", (i*31)%500),
			fmt.Sprintf("%d", i%13),
		})
	}
	wb := &xlsx.Workbook{
		Sheets: []xlsx.Sheet{
			{Name: "Edges", Rows: rows},
			{Name: "Summary", Rows: [][]string{{"Metric", "Value"}, {"Edges", "500"}}},
		},
	}
	return xlsx.WriteFile(wb, "testdata/sample.xlsx")
}
