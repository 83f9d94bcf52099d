package xlsx

import "strings"

var (
	cellEscaper   = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
	cellUnescaper = strings.NewReplacer(`\\`, `\`, `\t`, "\t", `\n`, "\n", `\r`, "\r")
)

// ToTSV renders the sheet as tab-separated lines. Tabs, newlines and
// backslashes inside cells are backslash-escaped.
func (s *Sheet) ToTSV() string {
	var b strings.Builder
	for _, row := range s.Rows {
		for j, cell := range row {
			if j > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(cellEscaper.Replace(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseTSV splits tab-separated text into rows, reversing ToTSV's escaping.
// A trailing newline does not produce an empty row.
func ParseTSV(text string) [][]string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	rows := make([][]string, len(lines))
	for i, line := range lines {
		cells := strings.Split(strings.TrimSuffix(line, "\r"), "\t")
		for j, cell := range cells {
			cells[j] = cellUnescaper.Replace(cell)
		}
		rows[i] = cells
	}
	return rows
}
