package reporter

import (
	"fmt"
	"io"

	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/signal"
	"trading-dashboard-go/internal/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary 存储根据成交历史计算出的绩效指标
type Summary struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         decimal.Decimal // 百分比
	TotalPnL        decimal.Decimal
	AvgWinLossRatio decimal.Decimal // 平均盈利 / 平均亏损, 缺少任一方时为0
	StartBalance    decimal.Decimal
	EndBalance      decimal.Decimal
	MaxDrawdown     decimal.Decimal // 百分比
}

// Summarize computes the summary of a trade history. The equity curve starts
// at balance minus the total P&L, so it ends at the current balance. A trade
// with zero P&L counts as a win, as on the dashboard.
func Summarize(trades []models.Trade, balance decimal.Decimal) Summary {
	s := Summary{TotalTrades: len(trades), EndBalance: balance}

	var totalProfit, totalLoss decimal.Decimal
	for _, t := range trades {
		s.TotalPnL = s.TotalPnL.Add(t.PnL)
		if t.PnL.IsNegative() {
			s.LosingTrades++
			totalLoss = totalLoss.Add(t.PnL)
		} else {
			s.WinningTrades++
			totalProfit = totalProfit.Add(t.PnL)
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.WinningTrades)).Div(decimal.NewFromInt(int64(s.TotalTrades))).Mul(hundred)
	}
	if s.LosingTrades > 0 && s.WinningTrades > 0 {
		avgWin := totalProfit.Div(decimal.NewFromInt(int64(s.WinningTrades)))
		avgLoss := totalLoss.Div(decimal.NewFromInt(int64(s.LosingTrades))).Abs()
		if !avgLoss.IsZero() {
			s.AvgWinLossRatio = avgWin.Div(avgLoss)
		}
	}

	s.StartBalance = balance.Sub(s.TotalPnL)
	curve := make([]decimal.Decimal, 0, len(trades)+1)
	curve = append(curve, s.StartBalance)
	equity := s.StartBalance
	for _, t := range trades {
		equity = equity.Add(t.PnL)
		curve = append(curve, equity)
	}
	s.MaxDrawdown = maxDrawdown(curve).Mul(hundred)
	return s
}

// maxDrawdown returns the largest peak-to-trough drop as a fraction of the
// peak. Non-positive peaks are skipped.
func maxDrawdown(equityCurve []decimal.Decimal) decimal.Decimal {
	if len(equityCurve) < 2 {
		return decimal.Zero
	}
	peak := equityCurve[0]
	worst := decimal.Zero

	for _, equity := range equityCurve {
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if !peak.IsPositive() {
			continue
		}
		drawdown := peak.Sub(equity).Div(peak)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}
	return worst
}

// Print 将持久化的最后一次快照和绩效指标输出为表格
func Print(w io.Writer, state *models.DashboardState) {
	if state == nil || state.LastStatus == nil {
		fmt.Fprintln(w, "no saved status snapshot yet, run the dashboard first")
		return
	}
	s := state.LastStatus
	v := view.BuildStatus(s, view.Options{Now: state.SavedAt})

	snap := table.NewWriter()
	snap.SetOutputMirror(w)
	snap.SetStyle(table.StyleRounded)
	snap.SetTitle("Last Snapshot")
	snap.AppendRows([]table.Row{
		{"Saved at", state.SavedAt.Local().Format("2006-01-02 15:04:05")},
		{"Chart timeframe", string(state.Timeframe)},
		{"Bot", v.RunningLabel},
		{"Balance", view.Money(v.Balance)},
		{"Available", view.Money(v.Available)},
		{"Price", view.OptionalMoney(v.CurrentPrice)},
		{"Signal", v.Signal.ConsensusBadge.Label},
		{"Position", v.Position.StatusLabel},
	})
	if val := v.Position.Valuation; val != nil && val.HasPnL {
		snap.AppendRow(table.Row{"Unrealized P&L", view.SignedMoney(val.PnL)})
	}
	snap.Render()

	sum := Summarize(s.Trades, s.Balance)
	perf := table.NewWriter()
	perf.SetOutputMirror(w)
	perf.SetStyle(table.StyleRounded)
	perf.SetTitle("Trade Performance")
	perf.AppendRows([]table.Row{
		{"Total trades", sum.TotalTrades},
		{"Winning", sum.WinningTrades},
		{"Losing", sum.LosingTrades},
		{"Win rate", sum.WinRate.StringFixed(2) + "%"},
		{"Total P&L", view.SignedMoney(sum.TotalPnL)},
		{"Avg win/loss", sum.AvgWinLossRatio.StringFixed(2)},
		{"Start balance", view.Money(sum.StartBalance)},
		{"End balance", view.Money(sum.EndBalance)},
		{"Max drawdown", sum.MaxDrawdown.StringFixed(2) + "%"},
	})
	perf.Render()

	if len(v.Trades) == 0 {
		return
	}
	trades := table.NewWriter()
	trades.SetOutputMirror(w)
	trades.SetStyle(table.StyleRounded)
	trades.SetTitle("Recent Trades")
	trades.AppendHeader(table.Row{"Side", "Entry", "Exit", "P&L", "Result", "Closed"})
	for _, tr := range v.Trades {
		result := "WIN"
		if tr.PnLTone == signal.ToneLoss {
			result = "LOSS"
		}
		trades.AppendRow(table.Row{tr.SideLabel, view.Money(tr.EntryPrice), view.Money(tr.ExitPrice), view.SignedMoney(tr.PnL), result, view.Clock(tr.ClosedAt)})
	}
	trades.Render()
}
