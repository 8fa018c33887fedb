package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/smoreau/docforge/analyzer"
	"github.com/smoreau/docforge/synth"
	"github.com/smoreau/docforge/variant"
)

func sampleVariants() []variant.Record {
	return []variant.Record{
		{Input: "The supplier shall deliver on time.", Classification: "Critical", Output: "Delivery must happen on schedule."},
		{Input: "Payment is due in thirty days.", Classification: "Important", Output: "Invoices are payable within 30 days."},
		{Input: "The offices are in Lyon.", Classification: "Standard", Output: "Lyon hosts the offices."},
	}
}

func TestVariantNDJSON_RoundTrip(t *testing.T) {
	records := sampleVariants()
	data, err := VariantNDJSON(records, ShapeRaw)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.HasSuffix(data, []byte("\n")) {
		t.Error("output must not end with a trailing separator")
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) != len(records) {
		t.Fatalf("got %d lines, want %d", len(lines), len(records))
	}
	for i, line := range lines {
		var rec variant.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if rec != records[i] {
			t.Errorf("line %d = %+v, want %+v", i, rec, records[i])
		}
	}
}

func TestVariantNDJSON_Empty(t *testing.T) {
	data, err := VariantNDJSON(nil, ShapeRaw)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("empty input should produce empty output, got %q", data)
	}
}

func TestVariantNDJSON_ConversationShape(t *testing.T) {
	data, err := VariantNDJSON(sampleVariants()[:1], ShapeConversation)
	if err != nil {
		t.Fatal(err)
	}

	var parsed struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(parsed.Messages))
	}
	if parsed.Messages[0].Role != "system" || parsed.Messages[1].Role != "user" || parsed.Messages[2].Role != "assistant" {
		t.Errorf("roles = %s/%s/%s", parsed.Messages[0].Role, parsed.Messages[1].Role, parsed.Messages[2].Role)
	}
	if !strings.Contains(parsed.Messages[2].Content, "[Critical]") {
		t.Errorf("assistant message should carry the label: %q", parsed.Messages[2].Content)
	}
}

func TestVariantNDJSON_InstructionAndPromptShapes(t *testing.T) {
	tests := []struct {
		shape   Shape
		wantKey string
	}{
		{ShapeInstruction, "instruction"},
		{ShapePrompt, "prompt"},
	}
	for _, tt := range tests {
		data, err := VariantNDJSON(sampleVariants()[:1], tt.shape)
		if err != nil {
			t.Fatal(err)
		}
		var parsed map[string]string
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatal(err)
		}
		if parsed[tt.wantKey] == "" {
			t.Errorf("shape %s: missing %q key in %v", tt.shape, tt.wantKey, parsed)
		}
		if parsed["completion"] == "" {
			t.Errorf("shape %s: missing completion key", tt.shape)
		}
	}
}

func TestVariantCSV_QuoteEscaping(t *testing.T) {
	records := []variant.Record{
		{Input: `He said "stop" and left.`, Classification: "Standard", Output: `A person said "stop", then departed.`},
	}

	data, err := VariantCSV(records)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not parseable CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "input" || rows[0][1] != "classification" || rows[0][2] != "output" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != records[0].Input {
		t.Errorf("quoted input did not survive the round trip: %q", rows[1][0])
	}
}

func TestRecordsCSV_ColumnOrder(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Name", Type: analyzer.TypeString},
		{Name: "Age", Type: analyzer.TypeInteger},
	}
	records := []synth.Record{
		{"Name": "Alice", "Age": 30},
		{"Name": "Bob", "Age": 25},
	}

	data, err := RecordsCSV(fields, records)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][1] != "Age" {
		t.Errorf("header = %v, column order must follow the field list", rows[0])
	}
	if rows[1][0] != "Alice" || rows[1][1] != "30" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestRecordsNDJSON(t *testing.T) {
	records := []synth.Record{
		{"id": 1, "city": "Lyon"},
		{"id": 2, "city": "Lille"},
	}

	data, err := RecordsNDJSON(records)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			t.Fatalf("line %d invalid: %v", i, err)
		}
	}
}

func TestRecordsXLSX(t *testing.T) {
	fields := []analyzer.Field{
		{Name: "Name", Type: analyzer.TypeString},
		{Name: "Age", Type: analyzer.TypeInteger},
	}
	records := []synth.Record{{"Name": "Alice", "Age": 30}}

	data, err := RecordsXLSX(fields, records)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Data")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][1] != "Age" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Alice" {
		t.Errorf("data row = %v", rows[1])
	}
}

func TestFormatContentType(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatNDJSON, "application/x-ndjson"},
		{FormatCSV, "text/csv"},
		{FormatXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	for _, tt := range tests {
		if got := tt.format.ContentType(); got != tt.want {
			t.Errorf("%s content type = %q, want %q", tt.format, got, tt.want)
		}
	}
}
