package dataset

import "strings"

// ToParagraph joins the sentence fragments of a text block into one paragraph.
func ToParagraph(lines []string) string {
	return strings.Join(lines, " ")
}

// ToMarkdownTable renders a 2D table as a markdown table with columns padded
// to their widest cell. The first row is treated as the header.
func ToMarkdownTable(table [][]string) string {
	if len(table) == 0 {
		return ""
	}

	widths := columnWidths(table)

	rows := make([]string, 0, len(table)+1)
	for _, row := range table {
		var b strings.Builder
		b.WriteString("|")
		for i, cell := range row {
			b.WriteString(" ")
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(" |")
		}
		rows = append(rows, b.String())
	}

	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("-", w)
	}
	headerSeparator := "|" + strings.Join(separators, "|") + "|"

	out := append([]string{rows[0], headerSeparator}, rows[1:]...)
	return strings.Join(out, "\n")
}

// columnWidths computes the widest cell per column, tolerating ragged rows.
func columnWidths(table [][]string) []int {
	cols := 0
	for _, row := range table {
		if len(row) > cols {
			cols = len(row)
		}
	}

	widths := make([]int, cols)
	for _, row := range table {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
