package matching

import (
	"reflect"
	"testing"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
)

func tradeRow(symbol, side string, qty, price float64, ts time.Time) types.TradeRow {
	return types.TradeRow{
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Amount:    qty * price,
		Timestamp: ts,
	}
}

var t0 = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func TestMatchRoundTrip(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideBuy, 100, 10, t0),
		tradeRow("X", types.SideSell, 100, 12, t0.Add(time.Hour)),
	}

	matched, open := Match(rows)

	if len(matched) != 1 {
		t.Fatalf("expected 1 matched trade, got %d", len(matched))
	}
	if len(open) != 0 {
		t.Fatalf("expected no open positions, got %d", len(open))
	}

	m := matched[0]
	if m.Quantity != 100 || m.PnL != 200 {
		t.Fatalf("expected quantity 100 pnl 200, got %+v", m)
	}
	if m.BuyPrice != 10 || m.SellPrice != 12 {
		t.Fatalf("unexpected prices: %+v", m)
	}
	if m.HoldSeconds != 3600 {
		t.Fatalf("expected hold 3600s, got %d", m.HoldSeconds)
	}
}

func TestMatchPartialLot(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideBuy, 100, 10, t0),
		tradeRow("X", types.SideSell, 60, 12, t0.Add(time.Hour)),
	}

	matched, open := Match(rows)

	if len(matched) != 1 || matched[0].Quantity != 60 || matched[0].PnL != 120 {
		t.Fatalf("unexpected matched trades: %+v", matched)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(open))
	}
	if open[0].Side != types.SideBuy || open[0].RemainingQuantity != 40 {
		t.Fatalf("unexpected open position: %+v", open[0])
	}
}

func TestMatchFIFOTieBreak(t *testing.T) {
	// Two buys at the identical timestamp; original file order decides
	// which lot is consumed first.
	rows := []types.TradeRow{
		tradeRow("X", types.SideBuy, 100, 10, t0),
		tradeRow("X", types.SideBuy, 100, 11, t0),
		tradeRow("X", types.SideSell, 200, 12, t0.Add(time.Hour)),
	}

	matched, open := Match(rows)

	if len(matched) != 2 || len(open) != 0 {
		t.Fatalf("expected 2 matched, 0 open, got %d/%d", len(matched), len(open))
	}
	if matched[0].BuyPrice != 10 {
		t.Fatalf("expected earlier-indexed buy matched first, got buy price %v", matched[0].BuyPrice)
	}
	if matched[1].BuyPrice != 11 {
		t.Fatalf("expected later buy matched second, got buy price %v", matched[1].BuyPrice)
	}
}

func TestMatchSellFirstShortLot(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideSell, 100, 12, t0),
		tradeRow("X", types.SideBuy, 100, 10, t0.Add(time.Hour)),
	}

	matched, open := Match(rows)

	if len(matched) != 1 || len(open) != 0 {
		t.Fatalf("expected 1 matched, 0 open, got %d/%d", len(matched), len(open))
	}
	if matched[0].PnL != 200 {
		t.Fatalf("expected short pnl 200, got %v", matched[0].PnL)
	}
	if !matched[0].SellTime.Equal(t0) || !matched[0].BuyTime.Equal(t0.Add(time.Hour)) {
		t.Fatalf("unexpected buy/sell times: %+v", matched[0])
	}
}

func TestMatchEventNotChronologicalInFile(t *testing.T) {
	// The sell appears first in the file but trades later; the matcher
	// must process in time order.
	rows := []types.TradeRow{
		tradeRow("X", types.SideSell, 100, 12, t0.Add(time.Hour)),
		tradeRow("X", types.SideBuy, 100, 10, t0),
	}

	matched, _ := Match(rows)
	if len(matched) != 1 || matched[0].HoldSeconds != 3600 {
		t.Fatalf("expected chronological matching, got %+v", matched)
	}
}

func TestMatchQuantityConservation(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideBuy, 100, 10, t0),
		tradeRow("Y", types.SideBuy, 30, 5, t0),
		tradeRow("X", types.SideSell, 60, 12, t0.Add(time.Hour)),
		tradeRow("X", types.SideBuy, 50, 11, t0.Add(2*time.Hour)),
		tradeRow("Y", types.SideSell, 45, 6, t0.Add(3*time.Hour)),
		tradeRow("X", types.SideSell, 120, 13, t0.Add(4*time.Hour)),
	}

	matched, open := Match(rows)

	input := map[string]float64{}
	for _, r := range rows {
		input[r.Symbol] += r.Quantity
	}

	// Each matched trade consumes its quantity once per side.
	consumed := map[string]float64{}
	for _, m := range matched {
		consumed[m.Symbol] += 2 * m.Quantity
	}
	for _, o := range open {
		consumed[o.Symbol] += o.RemainingQuantity
	}

	for symbol, want := range input {
		if got := consumed[symbol]; got != want {
			t.Fatalf("%s: expected conserved quantity %v, got %v", symbol, want, got)
		}
	}
}

func TestMatchDeterminism(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideBuy, 100, 10, t0),
		tradeRow("Y", types.SideSell, 20, 8, t0),
		tradeRow("X", types.SideBuy, 50, 11, t0),
		tradeRow("X", types.SideSell, 130, 12, t0.Add(time.Hour)),
		tradeRow("Y", types.SideBuy, 20, 7, t0.Add(time.Hour)),
	}

	rowsCopy := make([]types.TradeRow, len(rows))
	copy(rowsCopy, rows)

	matched1, open1 := Match(rows)
	matched2, open2 := Match(rowsCopy)

	if !reflect.DeepEqual(matched1, matched2) {
		t.Fatalf("matched output not deterministic:\n%+v\n%+v", matched1, matched2)
	}
	if !reflect.DeepEqual(open1, open2) {
		t.Fatalf("open output not deterministic:\n%+v\n%+v", open1, open2)
	}
}

func TestMatchUnmatchedSellBecomesOpenPosition(t *testing.T) {
	rows := []types.TradeRow{
		tradeRow("X", types.SideSell, 40, 12, t0),
	}

	matched, open := Match(rows)
	if len(matched) != 0 {
		t.Fatalf("expected no matched trades, got %+v", matched)
	}
	if len(open) != 1 || open[0].Side != types.SideSell || open[0].RemainingQuantity != 40 {
		t.Fatalf("unexpected open positions: %+v", open)
	}
}

func TestMatchEmptyInput(t *testing.T) {
	matched, open := Match(nil)
	if len(matched) != 0 || len(open) != 0 {
		t.Fatalf("expected empty output, got %d/%d", len(matched), len(open))
	}
}
