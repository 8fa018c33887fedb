package extraction

import "testing"

func tableLine(y float64, cells ...string) Line {
	frags := make([]Fragment, len(cells))
	for i, c := range cells {
		frags[i] = Fragment{Text: c, X: float64(i) * 150, Y: y}
	}
	return Line{Y: y, Fragments: frags}
}

func TestDetectTables_AlignedRun(t *testing.T) {
	page := Page{
		Number: 1,
		Lines: []Line{
			{Y: 700, Fragments: []Fragment{{Text: "Some ordinary paragraph line", X: 50, Y: 700}}},
			tableLine(650, "Name", "Age"),
			tableLine(630, "Alice", "30"),
			tableLine(610, "Bob", "25"),
			{Y: 580, Fragments: []Fragment{{Text: "Closing remark", X: 50, Y: 580}}},
		},
	}

	tables := DetectTables([]Page{page})
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	tbl := tables[0]
	if tbl.PageNumber != 1 {
		t.Errorf("page number = %d, want 1", tbl.PageNumber)
	}
	if len(tbl.Header) != 2 || tbl.Header[0] != "Name" || tbl.Header[1] != "Age" {
		t.Errorf("header = %v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "Alice" || tbl.Rows[1][1] != "25" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestDetectTables_TooFewRows(t *testing.T) {
	page := Page{
		Number: 1,
		Lines: []Line{
			tableLine(650, "Name", "Age"),
			tableLine(630, "Alice", "30"),
		},
	}
	if tables := DetectTables([]Page{page}); len(tables) != 0 {
		t.Errorf("two aligned lines should not form a table, got %d", len(tables))
	}
}

func TestDetectTables_MisalignedColumnBreaksRun(t *testing.T) {
	shifted := tableLine(610, "Carol", "41")
	shifted.Fragments[1].X += columnTolerance + 1

	page := Page{
		Number: 2,
		Lines: []Line{
			tableLine(650, "Name", "Age"),
			tableLine(630, "Alice", "30"),
			shifted,
		},
	}
	if tables := DetectTables([]Page{page}); len(tables) != 0 {
		t.Errorf("misaligned line should break the run, got %d tables", len(tables))
	}
}

func TestDetectTables_ToleratesSmallDrift(t *testing.T) {
	drifted := tableLine(610, "Carol", "41")
	drifted.Fragments[0].X += columnTolerance - 1

	page := Page{
		Number: 1,
		Lines: []Line{
			tableLine(650, "Name", "Age"),
			tableLine(630, "Alice", "30"),
			drifted,
		},
	}
	tables := DetectTables([]Page{page})
	if len(tables) != 1 {
		t.Fatalf("drift within tolerance should keep the run, got %d tables", len(tables))
	}
	if len(tables[0].Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(tables[0].Rows))
	}
}

func TestDetectSections(t *testing.T) {
	text := "1. Introduction\nThis agreement covers the services described below.\n\n" +
		"2. Payment Terms\nInvoices are due within thirty days.\nLate payments accrue interest.\n\n" +
		"ARTICLE IV LIABILITY\nNeither party is liable for indirect damages."

	sections := DetectSections(text)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}

	if sections[0].Title != "1. Introduction" {
		t.Errorf("section 0 title = %q", sections[0].Title)
	}
	if sections[1].Title != "2. Payment Terms" {
		t.Errorf("section 1 title = %q", sections[1].Title)
	}
	if sections[2].Title != "ARTICLE IV LIABILITY" {
		t.Errorf("section 2 title = %q", sections[2].Title)
	}

	if sections[1].Content == "" {
		t.Error("section content should accumulate lines until the next heading")
	}
}

func TestDetectSections_StandaloneHeading(t *testing.T) {
	text := "Some preamble text before any heading appears here.\n\n" +
		"Definitions\n\nA term means what this document says it means."

	sections := DetectSections(text)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Definitions" {
		t.Errorf("title = %q, want Definitions", sections[0].Title)
	}
}

func TestDetectSections_SentenceLineIsNotHeading(t *testing.T) {
	text := "This line ends with a period.\n\nSo it is content, not a heading."
	sections := DetectSections(text)
	for _, s := range sections {
		if s.Title == "This line ends with a period." {
			t.Error("sentence-like line should not become a heading")
		}
	}
}
