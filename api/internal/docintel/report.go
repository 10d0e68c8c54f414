package docintel

import (
	"fmt"
	"io"
	"strings"
)

// PrintLayout writes the layout report: handwriting, pages with lines, words
// and selection marks, then tables with their cells.
func PrintLayout(w io.Writer, r *AnalyzeResult) {
	if r.Handwritten() {
		fmt.Fprintln(w, "Document contains handwritten content.")
	} else {
		fmt.Fprintln(w, "No handwriting detected.")
	}

	for _, p := range r.Pages {
		fmt.Fprintf(w, "\nPage %d (%s) Size: %g x %g\n", p.PageNumber, p.Unit, p.Width, p.Height)
		for i, l := range p.Lines {
			words := p.WordsForLine(l)
			fmt.Fprintf(w, "  Line %d: '%s' Words: %d Bounds: %s\n", i, l.Content, len(words), polygon(l.Polygon))
			for _, wd := range words {
				fmt.Fprintf(w, "     Word: '%s' Confidence: %g\n", wd.Content, wd.Confidence)
			}
		}
		for _, m := range p.SelectionMarks {
			fmt.Fprintf(w, "  Selection mark: %s Confidence: %g Bounds: %s\n", m.State, m.Confidence, polygon(m.Polygon))
		}
	}

	for i, t := range r.Tables {
		fmt.Fprintf(w, "\nTable %d: %d rows x %d cols\n", i, t.RowCount, t.ColumnCount)
		for _, reg := range t.BoundingRegions {
			fmt.Fprintf(w, "  Location: Page %d Bounds: %s\n", reg.PageNumber, polygon(reg.Polygon))
		}
		for _, c := range t.Cells {
			fmt.Fprintf(w, "    Cell[%d][%d]: '%s'\n", c.RowIndex, c.ColumnIndex, c.Content)
			for _, reg := range c.BoundingRegions {
				fmt.Fprintf(w, "      Page %d Bounds: %s\n", reg.PageNumber, polygon(reg.Polygon))
			}
		}
	}
	fmt.Fprintln(w, "\nDone analyzing layout.")
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

func polygon(p []float64) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
