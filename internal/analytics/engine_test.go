package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
)

func matchedTrade(symbol string, pnl float64, buyTime time.Time, holdHours float64) types.MatchedTrade {
	return types.MatchedTrade{
		Symbol:      symbol,
		Quantity:    100,
		PnL:         pnl,
		BuyTime:     buyTime,
		SellTime:    buyTime.Add(time.Duration(holdHours * float64(time.Hour))),
		HoldSeconds: int64(holdHours * 3600),
	}
}

var jan = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
var feb = time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC)

func TestSummarizeEmptyInput(t *testing.T) {
	report := Summarize(nil)

	if report.TotalTrades != 0 || report.WinRate != 0 {
		t.Fatalf("expected zeroed report, got %+v", report)
	}
	if report.ProfitFactor != 0 || report.SharpeRatio != 0 || report.MaxDrawdown != 0 {
		t.Fatalf("expected zero-division guards to yield 0, got %+v", report)
	}
	if report.TradesByMonth == nil || len(report.TradesByMonth) != 0 {
		t.Fatalf("expected empty month buckets, got %+v", report.TradesByMonth)
	}
}

func TestSummarizeSingleWinner(t *testing.T) {
	report := Summarize([]types.MatchedTrade{matchedTrade("X", 200, jan, 1)})

	if report.WinRate != 100 {
		t.Fatalf("expected win rate 100, got %v", report.WinRate)
	}
	if report.GrossProfit != 200 || report.GrossLoss != 0 || report.NetProfit != 200 {
		t.Fatalf("unexpected profit figures: %+v", report)
	}
	// Zero gross loss defines profit factor as 0, not infinity
	if report.ProfitFactor != 0 {
		t.Fatalf("expected profit factor 0, got %v", report.ProfitFactor)
	}
	if report.AverageWin != 200 || report.AverageLoss != 0 {
		t.Fatalf("unexpected averages: %+v", report)
	}
}

func TestSummarizeMixedTrades(t *testing.T) {
	trades := []types.MatchedTrade{
		matchedTrade("X", 100, jan, 1),
		matchedTrade("X", -50, jan, 2),
		matchedTrade("Y", 30, feb, 3),
	}

	report := Summarize(trades)

	if report.TotalTrades != 3 || report.WinningTrades != 2 || report.LosingTrades != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.WinRate != 66.67 {
		t.Fatalf("expected win rate 66.67, got %v", report.WinRate)
	}
	if report.GrossProfit != 130 || report.GrossLoss != 50 || report.NetProfit != 80 {
		t.Fatalf("unexpected profit figures: %+v", report)
	}
	if report.ProfitFactor != 2.6 {
		t.Fatalf("expected profit factor 2.6, got %v", report.ProfitFactor)
	}
	if report.AverageWin != 65 || report.AverageLoss != 50 {
		t.Fatalf("unexpected averages: %+v", report)
	}
	// Running total walks 100 -> 50 -> 80; peak 100, trough 50
	if report.MaxDrawdown != 50 {
		t.Fatalf("expected max drawdown 50, got %v", report.MaxDrawdown)
	}
	if report.MaxDrawdownPct != 50 {
		t.Fatalf("expected drawdown pct 50, got %v", report.MaxDrawdownPct)
	}
	if report.SharpeRatio != 0.44 {
		t.Fatalf("expected sharpe 0.44, got %v", report.SharpeRatio)
	}
}

func TestSummarizeBreakevenTradeCountsNeitherBucket(t *testing.T) {
	trades := []types.MatchedTrade{
		matchedTrade("X", 0, jan, 1),
		matchedTrade("X", 100, jan, 1),
	}

	report := Summarize(trades)

	if report.TotalTrades != 2 || report.WinningTrades != 1 || report.LosingTrades != 0 {
		t.Fatalf("breakeven trade miscounted: %+v", report)
	}
	if report.WinRate != 50 {
		t.Fatalf("expected win rate 50, got %v", report.WinRate)
	}
}

func TestSummarizeSharpeZeroVariance(t *testing.T) {
	trades := []types.MatchedTrade{
		matchedTrade("X", 100, jan, 1),
		matchedTrade("X", 100, jan, 1),
	}

	report := Summarize(trades)
	if report.SharpeRatio != 0 {
		t.Fatalf("expected sharpe 0 on zero variance, got %v", report.SharpeRatio)
	}
}

func TestSummarizeNoNonFiniteOutputs(t *testing.T) {
	inputs := [][]types.MatchedTrade{
		nil,
		{matchedTrade("X", 0, jan, 1)},
		{matchedTrade("X", -100, jan, 1)},
	}

	for _, trades := range inputs {
		report := Summarize(trades)
		for name, v := range map[string]float64{
			"win_rate":         report.WinRate,
			"profit_factor":    report.ProfitFactor,
			"sharpe_ratio":     report.SharpeRatio,
			"max_drawdown_pct": report.MaxDrawdownPct,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s is non-finite for input %+v", name, trades)
			}
		}
	}
}

func TestSummarizeMonthBucketsFirstSeenOrder(t *testing.T) {
	trades := []types.MatchedTrade{
		matchedTrade("X", 10, jan, 1),
		matchedTrade("X", 20, feb, 1),
		matchedTrade("Y", 30, jan, 1),
	}

	report := Summarize(trades)

	if len(report.TradesByMonth) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", report.TradesByMonth)
	}
	first, second := report.TradesByMonth[0], report.TradesByMonth[1]
	if first.Month != "2024-01" || first.Count != 2 || first.PnL != 40 {
		t.Fatalf("unexpected first bucket: %+v", first)
	}
	if second.Month != "2024-02" || second.Count != 1 || second.PnL != 20 {
		t.Fatalf("unexpected second bucket: %+v", second)
	}
}

func TestBySymbol(t *testing.T) {
	trades := []types.MatchedTrade{
		matchedTrade("X", 100, jan, 2),
		matchedTrade("X", -50, jan, 4),
		matchedTrade("Y", -10, feb, 1),
	}

	reports := BySymbol(trades)

	if len(reports) != 2 {
		t.Fatalf("expected 2 symbol reports, got %d", len(reports))
	}
	// First-seen symbol order
	if reports[0].Symbol != "X" || reports[1].Symbol != "Y" {
		t.Fatalf("unexpected symbol order: %+v", reports)
	}

	x := reports[0]
	if x.TotalTrades != 2 || x.WinningTrades != 1 || x.LosingTrades != 1 {
		t.Fatalf("unexpected counts for X: %+v", x)
	}
	if x.TotalPnL != 50 || x.ProfitFactor != 2 {
		t.Fatalf("unexpected pnl figures for X: %+v", x)
	}
	if x.AvgHoldHours != 3 {
		t.Fatalf("expected avg hold 3h, got %v", x.AvgHoldHours)
	}
	// performance = totalPnl / |totalPnl + grossLoss| = 50 / 100
	if x.Performance != 0.5 {
		t.Fatalf("expected performance 0.5, got %v", x.Performance)
	}

	y := reports[1]
	if y.TotalPnL != -10 || y.WinRate != 0 || y.ProfitFactor != 0 {
		t.Fatalf("unexpected figures for Y: %+v", y)
	}
	// totalPnl + grossLoss == 0 guards the performance score to 0
	if y.Performance != 0 {
		t.Fatalf("expected performance 0 for Y, got %v", y.Performance)
	}
}

func TestBySymbolEmpty(t *testing.T) {
	if reports := BySymbol(nil); len(reports) != 0 {
		t.Fatalf("expected no reports, got %+v", reports)
	}
}
