// Package analyzer infers candidate schema fields from extracted document
// text, tables and sections.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/smoreau/docforge/extraction"
)

type FieldType string

const (
	TypeInteger FieldType = "integer"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeText    FieldType = "text"
	TypeString  FieldType = "string"
)

type Source string

const (
	SourceText    Source = "text"
	SourceTable   Source = "table"
	SourceSection Source = "section"
)

// Field is one inferred schema column with a representative sample value.
type Field struct {
	Name   string    `json:"name"`
	Type   FieldType `json:"type"`
	Sample string    `json:"sample"`
	Source Source    `json:"source"`
}

const (
	minLabelLen     = 2
	maxLabelLen     = 50
	sectionSampleLn = 100
)

var (
	// "Label: value" with the label capped at maxLabelLen characters.
	colonLineRe = regexp.MustCompile(`^\s*([^:\n]{2,50}?)\s*:\s+(.+)$`)
	// "Label - value"; the spaces around the dash keep hyphenated words out.
	dashLineRe = regexp.MustCompile(`^\s*(.{2,50}?)\s+[-–]\s+(.+)$`)

	integerRe = regexp.MustCompile(`^-?\d+$`)
	decimalRe = regexp.MustCompile(`^-?\d+\.\d+$`)
	slashDate = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}$`)
	isoDate   = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}([ T].*)?$`)
)

// Analyze walks the extraction result's detection sources in order — free
// text label/value lines, table headers, section titles — collecting fields
// not already seen. Names are deduplicated case-insensitively; the first
// occurrence wins.
func Analyze(res *extraction.Result) []Field {
	seen := make(map[string]struct{})
	var fields []Field

	add := func(f Field) {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		fields = append(fields, f)
	}

	textFields := fromTextLines(res.Text)
	for _, f := range textFields {
		add(f)
	}

	// Table headers run next; when the label/value scan found nothing they
	// are also the fallback source.
	for _, f := range fromTables(res.Tables) {
		add(f)
	}

	for _, f := range fromSections(res.Sections) {
		add(f)
	}

	return fields
}

func fromTextLines(text string) []Field {
	var fields []Field
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := colonLineRe.FindStringSubmatch(line)
		if m == nil {
			m = dashLineRe.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}

		label := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if len(label) < minLabelLen || len(label) > maxLabelLen || value == "" {
			continue
		}

		fields = append(fields, Field{
			Name:   label,
			Type:   inferType(value, SourceText),
			Sample: value,
			Source: SourceText,
		})
	}
	return fields
}

func fromTables(tables []extraction.Table) []Field {
	var fields []Field
	for _, table := range tables {
		for col, name := range table.Header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			sample := ""
			if len(table.Rows) > 0 && col < len(table.Rows[0]) {
				sample = strings.TrimSpace(table.Rows[0][col])
			}
			fields = append(fields, Field{
				Name:   name,
				Type:   inferType(sample, SourceTable),
				Sample: sample,
				Source: SourceTable,
			})
		}
	}
	return fields
}

func fromSections(sections []extraction.Section) []Field {
	var fields []Field
	for _, section := range sections {
		title := strings.TrimSpace(section.Title)
		if title == "" {
			continue
		}
		sample := section.Content
		if len(sample) > sectionSampleLn {
			sample = sample[:sectionSampleLn]
		}
		fields = append(fields, Field{
			Name:   title,
			Type:   TypeText,
			Sample: strings.TrimSpace(sample),
			Source: SourceSection,
		})
	}
	return fields
}

func inferType(sample string, source Source) FieldType {
	switch {
	case sample == "":
		// Nothing to infer from.
	case integerRe.MatchString(sample):
		return TypeInteger
	case decimalRe.MatchString(sample):
		return TypeDecimal
	case slashDate.MatchString(sample), isoDate.MatchString(sample):
		return TypeDate
	case looksDateish(sample):
		if _, err := dateparse.ParseAny(sample); err == nil {
			return TypeDate
		}
	}
	if source == SourceSection {
		return TypeText
	}
	return TypeString
}

// looksDateish gates the permissive dateparse fallback so plain words and
// bare numbers are never classified as dates.
func looksDateish(sample string) bool {
	if len(sample) < 6 || len(sample) > 40 {
		return false
	}
	hasDigit := strings.ContainsAny(sample, "0123456789")
	hasSep := strings.ContainsAny(sample, "/-,")
	return hasDigit && hasSep
}
