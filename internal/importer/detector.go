package importer

import (
	"math"
	"regexp"
	"strings"
)

const (
	// SampleRowLimit is the number of preview data rows fed to the
	// detector. Larger samples improve type inference at parse cost;
	// this is a tunable, not a correctness requirement.
	SampleRowLimit = 5

	// typeSampleLimit caps the non-empty values examined per column.
	typeSampleLimit = 3
)

// Column data types reported by the detector.
const (
	TypeDate   = "date"
	TypeNumber = "number"
	TypeString = "string"
)

// CanonicalFields lists every field the mapper can resolve, in report order.
var CanonicalFields = []string{
	"symbol",
	"trade_type",
	"quantity",
	"price",
	"amount",
	"trade_datetime",
}

// fieldAliases maps each canonical field to its accepted header aliases.
// Aliases are pre-normalized (lowercase, no punctuation or whitespace).
// A header matches when its normalized form contains an alias or the alias
// contains the normalized header.
var fieldAliases = map[string][]string{
	"symbol":         {"symbol", "ticker", "scrip", "instrument", "security", "stock", "product"},
	"trade_type":     {"tradetype", "side", "buysell", "action", "direction", "transactiontype", "type"},
	"quantity":       {"quantity", "qty", "shares", "units", "volume", "filled"},
	"price":          {"price", "rate", "avgprice", "tradeprice", "unitprice"},
	"amount":         {"amount", "value", "netamount", "total", "consideration", "proceeds"},
	"trade_datetime": {"tradedatetime", "tradedate", "datetime", "timestamp", "executedat", "date", "time"},
}

// Date templates accepted by the detector: YYYY-MM-DD, DD/MM/YYYY and
// DD-MM-YYYY, each with an optional time-of-day suffix. Checked before the
// numeric test on purpose; many date strings are otherwise numeric-looking.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}( \d{2}:\d{2}(:\d{2})?)?$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}( \d{2}:\d{2}(:\d{2})?)?$`),
}

var headerNormalizer = regexp.MustCompile(`[^a-z0-9]+`)

// ColumnInfo describes one source column of the uploaded file.
type ColumnInfo struct {
	Name         string   `json:"name"`
	InferredType string   `json:"inferred_type"`
	SampleValues []string `json:"sample_values"`
}

// ColumnMapping maps canonical field names to source column names. It is
// partial: fields with no acceptable header are simply absent.
type ColumnMapping map[string]string

// SchemaReport is the detector's output, computed per request and kept
// only long enough for the user to review the suggested mapping.
type SchemaReport struct {
	Columns          []ColumnInfo  `json:"columns"`
	SuggestedMapping ColumnMapping `json:"suggested_mapping"`
	ConfidenceScore  float64       `json:"confidence_score"`
}

// DetectSchema examines the header row plus sampled data rows and infers
// per-column types and a canonical field mapping. Pure; no side effects.
// An empty header yields an empty report with confidence 0.
func DetectSchema(records [][]string) *SchemaReport {
	report := &SchemaReport{
		Columns:          []ColumnInfo{},
		SuggestedMapping: ColumnMapping{},
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return report
	}

	header := records[0]
	samples := records[1:]
	if len(samples) > SampleRowLimit {
		samples = samples[:SampleRowLimit]
	}

	for col, name := range header {
		values := columnSamples(samples, col)
		report.Columns = append(report.Columns, ColumnInfo{
			Name:         name,
			InferredType: inferType(values),
			SampleValues: values,
		})
	}

	for _, field := range CanonicalFields {
		if source, ok := matchHeader(field, header); ok {
			report.SuggestedMapping[field] = source
		}
	}

	report.ConfidenceScore = round2(float64(len(report.SuggestedMapping)) / float64(len(CanonicalFields)))
	return report
}

// columnSamples collects up to typeSampleLimit non-empty values from the
// given column index.
func columnSamples(rows [][]string, col int) []string {
	values := []string{}
	for _, row := range rows {
		if len(values) == typeSampleLimit {
			break
		}
		if col >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// inferType classifies a column from its sample values. First match wins:
// date when any sample fits a date template, then number when every sample
// parses as a finite number, otherwise string.
func inferType(values []string) string {
	if len(values) == 0 {
		return TypeString
	}
	for _, v := range values {
		if isDateValue(v) {
			return TypeDate
		}
	}
	for _, v := range values {
		if _, err := ParseNumber(v); err != nil {
			return TypeString
		}
	}
	return TypeNumber
}

func isDateValue(v string) bool {
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

// matchHeader finds the source column for a canonical field. The first
// header in original column order that satisfies any alias wins; there is
// no scoring across candidates, so detection stays reproducible.
func matchHeader(field string, header []string) (string, bool) {
	aliases := fieldAliases[field]
	for _, name := range header {
		normalized := normalizeHeader(name)
		if normalized == "" {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(normalized, alias) || strings.Contains(alias, normalized) {
				return name, true
			}
		}
	}
	return "", false
}

func normalizeHeader(name string) string {
	return headerNormalizer.ReplaceAllString(strings.ToLower(name), "")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
