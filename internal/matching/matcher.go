package matching

import (
	"sort"

	"github.com/tradefolio/journal-api/internal/types"
)

// lot is an unmatched quantity waiting on its queue for the opposite side.
type lot struct {
	row      types.TradeRow
	quantity float64
}

// Match reconciles normalized trade rows into closed round trips and
// leftover open positions using FIFO lot matching per symbol.
//
// Rows for a symbol are processed in chronological order; equal timestamps
// keep their original file order so repeated runs on identical input yield
// identical output. Each event first consumes the oldest lot on the
// opposite-side queue, emitting one MatchedTrade per consumed overlap and
// carrying any remainder forward; an event with no opposite lot available
// is queued on its own side. Every input quantity ends up exactly once in
// either a matched trade or an open-position remainder.
func Match(rows []types.TradeRow) ([]types.MatchedTrade, []types.OpenPosition) {
	matched := []types.MatchedTrade{}
	open := []types.OpenPosition{}

	symbolOrder := []string{}
	bySymbol := map[string][]types.TradeRow{}
	for _, row := range rows {
		if _, seen := bySymbol[row.Symbol]; !seen {
			symbolOrder = append(symbolOrder, row.Symbol)
		}
		bySymbol[row.Symbol] = append(bySymbol[row.Symbol], row)
	}

	for _, symbol := range symbolOrder {
		events := bySymbol[symbol]
		// Stable: file order breaks timestamp ties.
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})

		var buys, sells []*lot
		for _, event := range events {
			remaining := event.Quantity

			opposite := &sells
			if event.Side == types.SideSell {
				opposite = &buys
			}

			for remaining > 0 && len(*opposite) > 0 {
				head := (*opposite)[0]
				consumed := remaining
				if head.quantity < consumed {
					consumed = head.quantity
				}

				buyRow, sellRow := head.row, event
				if event.Side == types.SideBuy {
					buyRow, sellRow = event, head.row
				}
				matched = append(matched, newMatchedTrade(symbol, consumed, buyRow, sellRow))

				remaining -= consumed
				head.quantity -= consumed
				if head.quantity == 0 {
					*opposite = (*opposite)[1:]
				}
			}

			if remaining > 0 {
				own := &buys
				if event.Side == types.SideSell {
					own = &sells
				}
				*own = append(*own, &lot{row: event, quantity: remaining})
			}
		}

		for _, l := range append(buys, sells...) {
			open = append(open, types.OpenPosition{
				Symbol:            symbol,
				Side:              l.row.Side,
				RemainingQuantity: l.quantity,
				Price:             l.row.Price,
				OpenedAt:          l.row.Timestamp,
			})
		}
	}

	return matched, open
}

func newMatchedTrade(symbol string, quantity float64, buy, sell types.TradeRow) types.MatchedTrade {
	pnl := quantity * (sell.Price - buy.Price)

	pnlPct := 0.0
	if cost := buy.Price * quantity; cost != 0 {
		pnlPct = pnl / cost * 100
	}

	return types.MatchedTrade{
		Symbol:      symbol,
		Quantity:    quantity,
		BuyPrice:    buy.Price,
		SellPrice:   sell.Price,
		BuyTime:     buy.Timestamp,
		SellTime:    sell.Timestamp,
		PnL:         pnl,
		PnLPct:      pnlPct,
		HoldSeconds: int64(sell.Timestamp.Sub(buy.Timestamp).Seconds()),
	}
}
