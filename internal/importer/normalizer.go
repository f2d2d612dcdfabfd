package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
)

// Timestamp layouts accepted for trade_datetime, tried in order. These
// mirror the detector's date templates with optional time components.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
}

var groupSeparators = strings.NewReplacer(",", "", " ", "")

// ParseNumber converts a numeric source string to a float64. Group
// separators (commas, spaces) are stripped before parsing and non-finite
// results are rejected; nothing else is coerced.
func ParseNumber(s string) (float64, error) {
	cleaned := groupSeparators.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite value")
	}
	return v, nil
}

// NormalizeSide maps a source trade-type token to BUY or SELL. BUY and B
// are buys, case-insensitive; everything else, including unrecognized
// tokens, becomes SELL. Unrecognized tokens falling through to SELL is
// deliberate compatibility behavior with existing broker exports.
func NormalizeSide(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return types.SideBuy
	default:
		return types.SideSell
	}
}

// ParseTimestamp parses a trade_datetime value against the accepted
// layouts, in order.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// NormalizeRows projects the confirmed column mapping onto every data row
// and validates each field. The first invalid row aborts the batch with a
// RowValidationError carrying its 1-based index; no partial results.
func NormalizeRows(records [][]string, mapping ColumnMapping) ([]types.TradeRow, error) {
	if len(records) == 0 {
		return nil, &ParseError{Cause: errEmptyFile}
	}

	columnIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		if _, exists := columnIndex[name]; !exists {
			columnIndex[name] = i
		}
	}

	lookup := func(row []string, field string) string {
		source, ok := mapping[field]
		if !ok {
			return ""
		}
		idx, ok := columnIndex[source]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rows := make([]types.TradeRow, 0, len(records)-1)
	for i, record := range records[1:] {
		rowNum := i + 1

		symbol := lookup(record, "symbol")
		if symbol == "" {
			return nil, &RowValidationError{Row: rowNum, Field: "symbol", Reason: "must not be empty"}
		}

		side := NormalizeSide(lookup(record, "trade_type"))

		quantity, err := ParseNumber(lookup(record, "quantity"))
		if err != nil {
			return nil, &RowValidationError{Row: rowNum, Field: "quantity", Reason: err.Error()}
		}
		quantity = math.Abs(quantity)
		if quantity == 0 {
			return nil, &RowValidationError{Row: rowNum, Field: "quantity", Reason: "must be greater than zero"}
		}

		price, err := ParseNumber(lookup(record, "price"))
		if err != nil {
			return nil, &RowValidationError{Row: rowNum, Field: "price", Reason: err.Error()}
		}
		if price <= 0 {
			return nil, &RowValidationError{Row: rowNum, Field: "price", Reason: "must be greater than zero"}
		}

		// Amount is optional: missing or unparseable values fall back
		// to quantity*price.
		amount, err := ParseNumber(lookup(record, "amount"))
		if err != nil {
			amount = quantity * price
		} else {
			amount = math.Abs(amount)
		}

		timestamp, err := ParseTimestamp(lookup(record, "trade_datetime"))
		if err != nil {
			return nil, &RowValidationError{Row: rowNum, Field: "trade_datetime", Reason: err.Error()}
		}

		rows = append(rows, types.TradeRow{
			Symbol:    symbol,
			Side:      side,
			Quantity:  quantity,
			Price:     price,
			Amount:    amount,
			Timestamp: timestamp,
		})
	}

	return rows, nil
}
