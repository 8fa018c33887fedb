// Package export serializes generated datasets as newline-delimited JSON,
// CSV, or XLSX workbooks.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/smoreau/docforge/analyzer"
	"github.com/smoreau/docforge/synth"
	"github.com/smoreau/docforge/variant"
)

type Format string

const (
	FormatNDJSON Format = "ndjson"
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
)

// Shape selects how a variant record is laid out per line.
type Shape string

const (
	// ShapeRaw emits the record fields as-is.
	ShapeRaw Shape = "raw"
	// ShapeConversation emits a three-message role-based conversation.
	ShapeConversation Shape = "conversation"
	// ShapeInstruction emits an instruction/completion pair.
	ShapeInstruction Shape = "instruction"
	// ShapePrompt emits a raw prompt/completion pair.
	ShapePrompt Shape = "prompt"
)

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/x-ndjson"
	}
}

const conversationSystem = "You classify contract clauses and produce a rewritten variant."

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VariantNDJSON writes one JSON object per line with no trailing separator.
func VariantNDJSON(records []variant.Record, shape Shape) ([]byte, error) {
	var buf bytes.Buffer
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		line, err := json.Marshal(shapeRecord(rec, shape))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

func shapeRecord(rec variant.Record, shape Shape) any {
	switch shape {
	case ShapeConversation:
		return map[string]any{
			"messages": []message{
				{Role: "system", Content: conversationSystem},
				{Role: "user", Content: rec.Input},
				{Role: "assistant", Content: fmt.Sprintf("[%s] %s", rec.Classification, rec.Output)},
			},
		}
	case ShapeInstruction:
		return map[string]string{
			"instruction": rec.Input,
			"completion":  rec.Output,
		}
	case ShapePrompt:
		return map[string]string{
			"prompt":     rec.Input,
			"completion": rec.Output,
		}
	default:
		return rec
	}
}

// VariantCSV writes input/classification/output rows. encoding/csv escapes
// embedded double quotes by doubling them.
func VariantCSV(records []variant.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"input", "classification", "output"}); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Input, rec.Classification, rec.Output}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecordsNDJSON serializes synthetic records one JSON object per line, no
// trailing separator.
func RecordsNDJSON(records []synth.Record) ([]byte, error) {
	var buf bytes.Buffer
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

// RecordsCSV writes synthetic records with columns in field order.
func RecordsCSV(fields []analyzer.Field, records []synth.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = fmt.Sprint(rec[f.Name])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RecordsXLSX builds a single-sheet workbook with field names as the header
// row.
func RecordsXLSX(fields []analyzer.Field, records []synth.Record) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Data"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, field := range fields {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, field.Name); err != nil {
			return nil, err
		}
	}

	for rowIdx, rec := range records {
		for col, field := range fields {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, rec[field.Name]); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
