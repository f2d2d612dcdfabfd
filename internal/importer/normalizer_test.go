package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
)

var testMapping = ColumnMapping{
	"symbol":         "Symbol",
	"trade_type":     "Side",
	"quantity":       "Qty",
	"price":          "Price",
	"amount":         "Amount",
	"trade_datetime": "Date",
}

func testHeader() []string {
	return []string{"Symbol", "Side", "Qty", "Price", "Amount", "Date"}
}

func TestNormalizeRowsBasic(t *testing.T) {
	records := [][]string{
		testHeader(),
		{"AAPL", "BUY", "100", "10.50", "1050", "2024-01-02 10:00:00"},
	}

	rows, err := NormalizeRows(records, testMapping)
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Symbol != "AAPL" || row.Side != types.SideBuy {
		t.Fatalf("unexpected symbol/side: %+v", row)
	}
	if row.Quantity != 100 || row.Price != 10.50 || row.Amount != 1050 {
		t.Fatalf("unexpected numbers: %+v", row)
	}
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	if !row.Timestamp.Equal(want) {
		t.Fatalf("expected timestamp %v, got %v", want, row.Timestamp)
	}
}

func TestNormalizeRowsThousandsSeparators(t *testing.T) {
	records := [][]string{
		testHeader(),
		{"AAPL", "BUY", "1,500", "1,010.25", "", "2024-01-02"},
	}

	rows, err := NormalizeRows(records, testMapping)
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if rows[0].Quantity != 1500 {
		t.Fatalf("expected quantity 1500, got %v", rows[0].Quantity)
	}
	if rows[0].Price != 1010.25 {
		t.Fatalf("expected price 1010.25, got %v", rows[0].Price)
	}
}

func TestNormalizeRowsAmountDefaultsToQuantityTimesPrice(t *testing.T) {
	records := [][]string{
		testHeader(),
		{"AAPL", "BUY", "100", "10", "", "2024-01-02"},
		{"AAPL", "SELL", "50", "12", "not-a-number", "2024-01-03"},
	}

	rows, err := NormalizeRows(records, testMapping)
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if rows[0].Amount != 1000 {
		t.Fatalf("expected amount 1000, got %v", rows[0].Amount)
	}
	if rows[1].Amount != 600 {
		t.Fatalf("expected amount 600, got %v", rows[1].Amount)
	}
}

func TestNormalizeRowsQuantityAbsoluteValued(t *testing.T) {
	records := [][]string{
		testHeader(),
		{"AAPL", "SELL", "-75", "10", "750", "2024-01-02"},
	}

	rows, err := NormalizeRows(records, testMapping)
	if err != nil {
		t.Fatalf("NormalizeRows: %v", err)
	}
	if rows[0].Quantity != 75 {
		t.Fatalf("expected quantity 75, got %v", rows[0].Quantity)
	}
}

func TestNormalizeSideFallbackToSell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BUY", types.SideBuy},
		{"buy", types.SideBuy},
		{"B", types.SideBuy},
		{"b", types.SideBuy},
		{"SELL", types.SideSell},
		{"S", types.SideSell},
		// Unrecognized tokens fall back to SELL
		{"HOLD", types.SideSell},
		{"", types.SideSell},
		{"purchase", types.SideSell},
	}

	for _, tt := range tests {
		if got := NormalizeSide(tt.in); got != tt.want {
			t.Fatalf("NormalizeSide(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestNormalizeRowsFailFast(t *testing.T) {
	tests := []struct {
		name      string
		record    []string
		wantRow   int
		wantField string
	}{
		{"empty symbol", []string{"", "BUY", "100", "10", "", "2024-01-02"}, 2, "symbol"},
		{"bad quantity", []string{"AAPL", "BUY", "xx", "10", "", "2024-01-02"}, 2, "quantity"},
		{"zero quantity", []string{"AAPL", "BUY", "0", "10", "", "2024-01-02"}, 2, "quantity"},
		{"bad price", []string{"AAPL", "BUY", "100", "", "", "2024-01-02"}, 2, "price"},
		{"negative price", []string{"AAPL", "BUY", "100", "-10", "", "2024-01-02"}, 2, "price"},
		{"bad date", []string{"AAPL", "BUY", "100", "10", "", "January 2nd"}, 2, "trade_datetime"},
	}

	for _, tt := range tests {
		records := [][]string{
			testHeader(),
			{"AAPL", "BUY", "10", "5", "50", "2024-01-01"},
			tt.record,
		}

		rows, err := NormalizeRows(records, testMapping)
		if err == nil {
			t.Fatalf("%s: expected error, got rows %v", tt.name, rows)
		}

		var rowErr *RowValidationError
		if !errors.As(err, &rowErr) {
			t.Fatalf("%s: expected RowValidationError, got %T", tt.name, err)
		}
		if rowErr.Row != tt.wantRow {
			t.Fatalf("%s: expected row %d, got %d", tt.name, tt.wantRow, rowErr.Row)
		}
		if rowErr.Field != tt.wantField {
			t.Fatalf("%s: expected field %s, got %s", tt.name, tt.wantField, rowErr.Field)
		}
	}
}

func TestParseNumberRejectsNonFinite(t *testing.T) {
	for _, in := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		if _, err := ParseNumber(in); err == nil {
			t.Fatalf("expected ParseNumber(%q) to fail", in)
		}
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-03-15 09:30:00", time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("ParseTimestamp(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParseTimestamp("03/15/2024"); err == nil {
		t.Fatal("expected month-first date to be rejected")
	}
}
