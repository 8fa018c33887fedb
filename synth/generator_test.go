package synth

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/smoreau/docforge/analyzer"
	"github.com/smoreau/docforge/extraction"
)

var emailRe = regexp.MustCompile(`^[a-z]+\.[a-z]+@[a-z.]+$`)

func TestGenerate_EmailShapePreserved(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Contact Email", Type: analyzer.TypeString, Sample: "jane.doe@acme.com", Source: analyzer.SourceText},
	}

	g := NewGenerator(42, nil)
	records := g.Generate(fields, nil, 20)

	if len(records) != 20 {
		t.Fatalf("expected 20 records, got %d", len(records))
	}
	for i, rec := range records {
		v, ok := rec["Contact Email"].(string)
		if !ok {
			t.Fatalf("record %d: value is %T, want string", i, rec["Contact Email"])
		}
		if !emailRe.MatchString(v) {
			t.Errorf("record %d: %q does not look like an email", i, v)
		}
	}
}

func TestGenerate_CountClamped(t *testing.T) {
	fields := []analyzer.Field{{Name: "ID", Type: analyzer.TypeInteger}}
	g := NewGenerator(1, nil)

	tests := []struct {
		in   int
		want int
	}{
		{0, MinRecords},
		{-5, MinRecords},
		{10, 10},
		{5000, MaxRecords},
	}
	for _, tt := range tests {
		if got := len(g.Generate(fields, nil, tt.in)); got != tt.want {
			t.Errorf("Generate(count=%d) produced %d records, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGenerate_HarvestedPoolValues(t *testing.T) {
	res := &extraction.Result{
		Tables: []extraction.Table{{
			Header: []string{"City", "Population"},
			Rows: [][]string{
				{"Lyon", "522000"},
				{"Nantes", "320000"},
				{"Lille", "236000"},
			},
		}},
	}
	fields := []analyzer.Field{
		{Name: "City", Type: analyzer.TypeString, Sample: "Lyon", Source: analyzer.SourceTable},
	}

	allowed := map[string]bool{"Lyon": true, "Nantes": true, "Lille": true}
	g := NewGenerator(7, nil)
	for _, rec := range g.Generate(fields, res, 30) {
		v, _ := rec["City"].(string)
		if !allowed[v] {
			t.Errorf("value %q not drawn from the harvested column", v)
		}
	}
}

func TestGenerate_DateWithinLastFiveYears(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Signed On", Type: analyzer.TypeDate, Sample: "2024-01-01"},
	}

	g := NewGenerator(99, nil)
	floor := time.Now().AddDate(-5, 0, -1)
	ceiling := time.Now().AddDate(0, 0, 1)

	for _, rec := range g.Generate(fields, nil, 25) {
		v, _ := rec["Signed On"].(string)
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			t.Fatalf("value %q is not an ISO date: %v", v, err)
		}
		if d.Before(floor) || d.After(ceiling) {
			t.Errorf("date %s outside the last five years", v)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Amount", Type: analyzer.TypeDecimal},
		{Name: "Notes", Type: analyzer.TypeText},
	}

	a := NewGenerator(1234, nil).Generate(fields, nil, 10)
	b := NewGenerator(1234, nil).Generate(fields, nil, 10)

	for i := range a {
		if a[i]["Amount"] != b[i]["Amount"] {
			t.Errorf("record %d Amount differs between identically seeded runs", i)
		}
		if a[i]["Notes"] != b[i]["Notes"] {
			t.Errorf("record %d Notes differs between identically seeded runs", i)
		}
	}
}

func TestGenerate_TypedValues(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Count", Type: analyzer.TypeInteger},
		{Name: "Price", Type: analyzer.TypeDecimal},
		{Name: "Summary", Type: analyzer.TypeText},
		{Name: "Reference", Type: analyzer.TypeString, Sample: "ABC-001"},
	}

	g := NewGenerator(5, nil)
	rec := g.Generate(fields, nil, 1)[0]

	if _, ok := rec["Count"].(int); !ok {
		t.Errorf("Count is %T, want int", rec["Count"])
	}
	if _, ok := rec["Price"].(float64); !ok {
		t.Errorf("Price is %T, want float64", rec["Price"])
	}
	if s, _ := rec["Summary"].(string); len(s) == 0 {
		t.Error("Summary should be a non-empty paragraph")
	}
	if s, _ := rec["Reference"].(string); !strings.HasPrefix(s, "reference_") {
		t.Errorf("Reference = %q, want templated placeholder", s)
	}
}

func TestGenerate_PersonNameShape(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Signatory", Type: analyzer.TypeString, Sample: "Jane Doe"},
	}
	nameRe := regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`)

	g := NewGenerator(3, nil)
	for _, rec := range g.Generate(fields, nil, 10) {
		v, _ := rec["Signatory"].(string)
		if !nameRe.MatchString(v) {
			t.Errorf("value %q does not look like a person name", v)
		}
	}
}
