package extraction

import "strings"

const (
	// columnTolerance is how far (PDF units) a fragment may drift from the
	// run's column position and still count as the same column.
	columnTolerance = 12.0
	// minTableRows is the minimum run of aligned lines that forms a table.
	minTableRows = 3
	minTableCols = 2
)

// DetectTables scans positioned page lines for runs of consecutive lines
// whose fragments align on consistent horizontal positions. A run of at
// least minTableRows lines becomes a Table with the first line as header.
func DetectTables(pages []Page) []Table {
	var tables []Table
	for _, page := range pages {
		tables = append(tables, detectPageTables(page)...)
	}
	return tables
}

func detectPageTables(page Page) []Table {
	var tables []Table
	var run []Line
	var columns []float64

	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, buildTable(run, page.Number))
		}
		run = nil
		columns = nil
	}

	for _, line := range page.Lines {
		if len(line.Fragments) < minTableCols {
			flush()
			continue
		}
		if run == nil {
			run = []Line{line}
			columns = columnPositions(line)
			continue
		}
		if alignsWith(line, columns) {
			run = append(run, line)
			continue
		}
		flush()
		run = []Line{line}
		columns = columnPositions(line)
	}
	flush()

	return tables
}

func columnPositions(line Line) []float64 {
	xs := make([]float64, len(line.Fragments))
	for i, f := range line.Fragments {
		xs[i] = f.X
	}
	return xs
}

func alignsWith(line Line, columns []float64) bool {
	if len(line.Fragments) != len(columns) {
		return false
	}
	for i, f := range line.Fragments {
		diff := f.X - columns[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > columnTolerance {
			return false
		}
	}
	return true
}

func buildTable(run []Line, pageNumber int) Table {
	header := cellTexts(run[0])
	rows := make([][]string, 0, len(run)-1)
	for _, line := range run[1:] {
		rows = append(rows, cellTexts(line))
	}
	return Table{Header: header, Rows: rows, PageNumber: pageNumber}
}

func cellTexts(line Line) []string {
	cells := make([]string, 0, len(line.Fragments))
	for _, f := range line.Fragments {
		cells = append(cells, strings.TrimSpace(f.Text))
	}
	return cells
}
