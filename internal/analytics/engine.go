package analytics

import (
	"math"

	"github.com/tradefolio/journal-api/internal/types"
)

// MonthBucket groups trades by the calendar month of their entry (buy)
// date, in YYYY-MM form.
type MonthBucket struct {
	Month string  `json:"month"`
	Count int     `json:"count"`
	PnL   float64 `json:"pnl"`
}

// PerformanceReport aggregates a set of matched trades. It is derived and
// read-only: recomputed on demand, never stored. Monetary and percentage
// values are rounded to 2 decimals at this boundary; internal computation
// keeps full precision.
type PerformanceReport struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	NetProfit      float64 `json:"net_profit"`
	ProfitFactor   float64 `json:"profit_factor"`
	AverageWin     float64 `json:"average_win"`
	AverageLoss    float64 `json:"average_loss"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	// SharpeRatio is a simplified single-period statistic over per-trade
	// pnl (population mean over population standard deviation). It is not
	// an annualized Sharpe ratio.
	SharpeRatio   float64       `json:"sharpe_ratio"`
	TradesByMonth []MonthBucket `json:"trades_by_month"`
}

// SymbolReport scopes win/loss statistics to one symbol.
type SymbolReport struct {
	Symbol        string  `json:"symbol"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	ProfitFactor  float64 `json:"profit_factor"`
	AvgHoldHours  float64 `json:"avg_hold_hours"`
	// Performance is totalPnl / |totalPnl + grossLoss|, an ad hoc score
	// kept verbatim for compatibility. It has no rigorous interpretation
	// and should not be extended to new consumers.
	Performance float64 `json:"performance"`
}

// Summarize computes the aggregate performance report over matched trades.
// The drawdown walk follows the given order with no re-sorting; callers
// must supply trades chronologically for that figure to be meaningful.
// An empty input yields a zero-valued report, not an error, and the
// zero-denominator cases (profit factor, Sharpe, drawdown percentage) are
// defined as 0, never NaN or infinity.
func Summarize(trades []types.MatchedTrade) *PerformanceReport {
	report := &PerformanceReport{
		TradesByMonth: []MonthBucket{},
	}
	if len(trades) == 0 {
		return report
	}

	var grossProfit, grossLoss float64
	var running, peak, maxDrawdown, peakAtMax float64

	monthOrder := []string{}
	months := map[string]*MonthBucket{}

	for _, trade := range trades {
		report.TotalTrades++
		switch {
		case trade.PnL > 0:
			report.WinningTrades++
			grossProfit += trade.PnL
		case trade.PnL < 0:
			report.LosingTrades++
			grossLoss += -trade.PnL
		}

		running += trade.PnL
		if running > peak {
			peak = running
		}
		if dd := peak - running; dd > maxDrawdown {
			maxDrawdown = dd
			peakAtMax = peak
		}

		// Buckets appear in first-occurrence order, not sorted. Known
		// quirk, preserved for downstream compatibility.
		month := trade.BuyTime.Format("2006-01")
		bucket, ok := months[month]
		if !ok {
			bucket = &MonthBucket{Month: month}
			months[month] = bucket
			monthOrder = append(monthOrder, month)
		}
		bucket.Count++
		bucket.PnL += trade.PnL
	}

	report.WinRate = round2(float64(report.WinningTrades) / float64(report.TotalTrades) * 100)
	report.GrossProfit = round2(grossProfit)
	report.GrossLoss = round2(grossLoss)
	report.NetProfit = round2(grossProfit - grossLoss)
	if grossLoss != 0 {
		report.ProfitFactor = round2(grossProfit / grossLoss)
	}
	if report.WinningTrades > 0 {
		report.AverageWin = round2(grossProfit / float64(report.WinningTrades))
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = round2(grossLoss / float64(report.LosingTrades))
	}
	report.MaxDrawdown = round2(maxDrawdown)
	if peakAtMax > 0 {
		report.MaxDrawdownPct = round2(maxDrawdown / peakAtMax * 100)
	}
	report.SharpeRatio = round2(sharpeRatio(trades))

	for _, month := range monthOrder {
		bucket := months[month]
		bucket.PnL = round2(bucket.PnL)
		report.TradesByMonth = append(report.TradesByMonth, *bucket)
	}

	return report
}

// sharpeRatio treats each trade's pnl as one return sample: population
// mean over population standard deviation (no Bessel correction), 0 when
// the variance is 0.
func sharpeRatio(trades []types.MatchedTrade) float64 {
	n := float64(len(trades))
	if n == 0 {
		return 0
	}

	var sum float64
	for _, t := range trades {
		sum += t.PnL
	}
	mean := sum / n

	var variance float64
	for _, t := range trades {
		d := t.PnL - mean
		variance += d * d
	}
	variance /= n

	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

// BySymbol computes per-symbol reports in first-seen symbol order.
func BySymbol(trades []types.MatchedTrade) []SymbolReport {
	symbolOrder := []string{}
	grouped := map[string][]types.MatchedTrade{}
	for _, trade := range trades {
		if _, seen := grouped[trade.Symbol]; !seen {
			symbolOrder = append(symbolOrder, trade.Symbol)
		}
		grouped[trade.Symbol] = append(grouped[trade.Symbol], trade)
	}

	reports := []SymbolReport{}
	for _, symbol := range symbolOrder {
		group := grouped[symbol]
		r := SymbolReport{Symbol: symbol, TotalTrades: len(group)}

		var grossProfit, grossLoss, totalPnL, holdSeconds float64
		for _, trade := range group {
			totalPnL += trade.PnL
			holdSeconds += float64(trade.HoldSeconds)
			switch {
			case trade.PnL > 0:
				r.WinningTrades++
				grossProfit += trade.PnL
			case trade.PnL < 0:
				r.LosingTrades++
				grossLoss += -trade.PnL
			}
		}

		r.WinRate = round2(float64(r.WinningTrades) / float64(r.TotalTrades) * 100)
		r.TotalPnL = round2(totalPnL)
		if grossLoss != 0 {
			r.ProfitFactor = round2(grossProfit / grossLoss)
		}
		r.AvgHoldHours = round2(holdSeconds / float64(r.TotalTrades) / 3600)
		if denom := math.Abs(totalPnL + grossLoss); denom != 0 {
			r.Performance = round2(totalPnL / denom)
		}

		reports = append(reports, r)
	}

	return reports
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
