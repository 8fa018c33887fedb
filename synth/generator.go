// Package synth fabricates records conforming to an inferred schema,
// preferring values harvested from the source document's tables.
package synth

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/smoreau/docforge/analyzer"
	"github.com/smoreau/docforge/extraction"
)

// Record maps field names to generated values. Records are disposable and
// regenerated per request.
type Record map[string]any

const (
	MinRecords = 1
	MaxRecords = 1000
)

type Generator struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGenerator seeds the value source. A fixed seed gives reproducible
// datasets, which the tests rely on.
func NewGenerator(seed int64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), logger: logger}
}

// Generate produces count records for the given fields. count is clamped to
// [MinRecords, MaxRecords]. Fields whose names match a table column reuse
// that column's harvested values; everything else is synthesized by type.
func (g *Generator) Generate(fields []analyzer.Field, res *extraction.Result, count int) []Record {
	if count < MinRecords {
		count = MinRecords
	}
	if count > MaxRecords {
		count = MaxRecords
	}

	pools := harvestPools(fields, res)

	records := make([]Record, count)
	for i := 0; i < count; i++ {
		record := make(Record, len(fields))
		for _, field := range fields {
			if pool := pools[strings.ToLower(field.Name)]; len(pool) > 0 {
				record[field.Name] = pool[g.rng.Intn(len(pool))]
				continue
			}
			record[field.Name] = g.synthesize(field, i)
		}
		records[i] = record
	}

	g.logger.Debug("Generated synthetic records",
		slog.Int("count", count),
		slog.Int("fields", len(fields)),
		slog.Int("harvested_pools", len(pools)))

	return records
}

// harvestPools collects real column values for fields whose names match a
// table header, keyed by lowercased field name.
func harvestPools(fields []analyzer.Field, res *extraction.Result) map[string][]string {
	if res == nil {
		return nil
	}

	wanted := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		wanted[strings.ToLower(f.Name)] = struct{}{}
	}

	pools := make(map[string][]string)
	for _, table := range res.Tables {
		for col, header := range table.Header {
			key := strings.ToLower(strings.TrimSpace(header))
			if _, ok := wanted[key]; !ok {
				continue
			}
			for _, row := range table.Rows {
				if col < len(row) {
					if v := strings.TrimSpace(row[col]); v != "" {
						pools[key] = append(pools[key], v)
					}
				}
			}
		}
	}
	return pools
}

func (g *Generator) synthesize(field analyzer.Field, index int) any {
	switch field.Type {
	case analyzer.TypeInteger:
		return g.rng.Intn(10000)
	case analyzer.TypeDecimal:
		return math.Round(g.rng.Float64()*10000*100) / 100
	case analyzer.TypeDate:
		return g.randomDate()
	case analyzer.TypeText:
		return g.fillerParagraph()
	default:
		return g.patternValue(field, index)
	}
}

// randomDate picks a day within the last five years.
func (g *Generator) randomDate() string {
	start := time.Now().AddDate(-5, 0, 0)
	span := int64(time.Since(start))
	offset := time.Duration(g.rng.Int63n(span))
	return start.Add(offset).Format("2006-01-02")
}

var fillerSentences = []string{
	"The parties agree to the terms set out in this section.",
	"All amounts are stated exclusive of applicable taxes.",
	"Notice must be given in writing within a reasonable period.",
	"This provision survives termination of the agreement.",
	"Records are retained in accordance with the retention schedule.",
	"Any amendment requires the written consent of both parties.",
	"The obligations in this clause apply to all affiliates.",
	"Performance is measured against the agreed service levels.",
}

func (g *Generator) fillerParagraph() string {
	n := 2 + g.rng.Intn(3)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fillerSentences[g.rng.Intn(len(fillerSentences))]
	}
	return strings.Join(parts, " ")
}

var (
	personNameRe = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`)
	phoneRe      = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	zipRe        = regexp.MustCompile(`^\d{5}$`)
)

var (
	firstNames = []string{"Alice", "Marco", "Priya", "Daniel", "Yuki", "Fatima", "Lucas", "Ingrid", "Omar", "Chen"}
	lastNames  = []string{"Johnson", "Silva", "Patel", "Novak", "Tanaka", "Hassan", "Moreau", "Larsen", "Okafor", "Wei"}
	domains    = []string{"example.com", "mail.test", "corp.example.org", "inbox.example.net"}
)

// patternValue inspects the sample's shape and synthesizes something of the
// same kind: email, person name, phone, zip, or a templated placeholder.
func (g *Generator) patternValue(field analyzer.Field, index int) string {
	sample := strings.TrimSpace(field.Sample)
	switch {
	case strings.Contains(sample, "@"):
		first := strings.ToLower(firstNames[g.rng.Intn(len(firstNames))])
		last := strings.ToLower(lastNames[g.rng.Intn(len(lastNames))])
		return fmt.Sprintf("%s.%s@%s", first, last, domains[g.rng.Intn(len(domains))])
	case personNameRe.MatchString(sample):
		return firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
	case phoneRe.MatchString(sample):
		return fmt.Sprintf("%03d-%03d-%04d", g.rng.Intn(1000), g.rng.Intn(1000), g.rng.Intn(10000))
	case zipRe.MatchString(sample):
		return fmt.Sprintf("%05d", g.rng.Intn(100000))
	default:
		slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(field.Name), " ", "_"))
		return fmt.Sprintf("%s_%d", slug, index+1)
	}
}
