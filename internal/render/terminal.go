package render

import (
	"fmt"
	"io"
	"sync"

	"trading-dashboard-go/internal/signal"
	"trading-dashboard-go/internal/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DefaultTerminalTradeRows 终端中最多显示的成交行数
const DefaultTerminalTradeRows = 10

// Terminal renders view-state as go-pretty tables on an io.Writer.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	tradeRows int
	colors    bool

	held    bool
	pending []pendingPaint
}

type pendingPaint struct {
	kind  string
	paint func()
}

// NewTerminal 创建终端渲染器。tradeRows <= 0 使用默认值。
func NewTerminal(out io.Writer, tradeRows int, colors bool) *Terminal {
	if tradeRows <= 0 {
		tradeRows = DefaultTerminalTradeRows
	}
	return &Terminal{out: out, tradeRows: tradeRows, colors: colors}
}

func (t *Terminal) paint(tone signal.Tone, s string) string {
	if !t.colors {
		return s
	}
	switch tone {
	case signal.ToneProfit:
		return text.FgGreen.Sprint(s)
	case signal.ToneLoss:
		return text.FgRed.Sprint(s)
	default:
		return text.FgHiBlack.Sprint(s)
	}
}

func (t *Terminal) newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	return tw
}

// RenderStatus prints the account, signal, position and recent trades.
func (t *Terminal) RenderStatus(v view.StatusView) {
	t.run(FrameStatus, func() { t.paintStatus(v) })
}

func (t *Terminal) paintStatus(v view.StatusView) {
	acct := t.newTable("Bot Status")
	acct.AppendHeader(table.Row{"Bot", "Balance", "Available", "Price", "Updated"})
	acct.AppendRow(table.Row{
		t.paint(v.RunningTone, v.RunningLabel),
		view.Money(v.Balance),
		view.Money(v.Available),
		view.OptionalMoney(v.CurrentPrice),
		v.UpdatedAt.Format("15:04:05"),
	})
	acct.Render()

	sig := t.newTable("SAR Signal")
	header := table.Row{}
	row := table.Row{}
	for _, b := range v.Signal.Badges {
		header = append(header, string(b.Timeframe))
		row = append(row, t.paint(b.Tone, b.Label))
	}
	header = append(header, "Consensus")
	row = append(row, t.paint(v.Signal.ConsensusBadge.Tone, v.Signal.ConsensusBadge.Label))
	sig.AppendHeader(header)
	sig.AppendRow(row)
	sig.Render()

	pos := t.newTable("Position: " + v.Position.StatusLabel)
	if val := v.Position.Valuation; v.Position.Open && val != nil {
		pnl := "--"
		if val.HasPnL {
			pnl = view.SignedMoney(val.PnL) + " USDT"
		}
		pos.AppendHeader(table.Row{"Side", "Entry", "Size", "Notional", "Since", "P&L"})
		pos.AppendRow(table.Row{
			t.paint(val.SideTone, val.SideLabel),
			t.paint(val.SideTone, view.Money(val.EntryPrice)),
			t.paint(val.SideTone, view.Size(val.SizeBase)),
			t.paint(val.SideTone, view.Money(val.Notional)),
			t.paint(val.SideTone, view.Clock(val.EntryTime)),
			t.paint(val.SideTone, pnl),
		})
	} else {
		pos.AppendRow(table.Row{"No open position"})
	}
	pos.Render()

	trades := t.newTable(fmt.Sprintf("Recent Trades (%d total)", v.TradeCount))
	if len(v.Trades) == 0 {
		trades.AppendRow(table.Row{"No completed trades"})
		trades.Render()
		return
	}
	trades.AppendHeader(table.Row{"Side", "Entry", "Exit", "P&L", "Closed", "Duration"})
	for i, tr := range v.Trades {
		if i == t.tradeRows {
			trades.AppendFooter(table.Row{fmt.Sprintf("... %d more", len(v.Trades)-i)})
			break
		}
		trades.AppendRow(table.Row{
			t.paint(tr.SideTone, tr.SideLabel),
			view.Money(tr.EntryPrice),
			view.Money(tr.ExitPrice),
			t.paint(tr.PnLTone, view.SignedMoney(tr.PnL)),
			view.Clock(tr.ClosedAt),
			tr.Duration,
		})
	}
	trades.Render()
}

// RenderChart prints a one-line chart summary. The terminal has no viewport,
// so fit only changes the mode shown.
func (t *Terminal) RenderChart(v view.ChartView, fit bool) {
	t.run(FrameChart, func() { t.paintChart(v, fit) })
}

func (t *Terminal) paintChart(v view.ChartView, fit bool) {
	mode := "MANUAL"
	if fit {
		mode = "AUTO"
	}
	if len(v.Candles) == 0 {
		fmt.Fprintf(t.out, "[chart %s] no candles (%s)\n", v.Timeframe, mode)
		return
	}
	last := v.Candles[len(v.Candles)-1]
	sar := "-"
	if n := len(v.Markers); n > 0 {
		m := v.Markers[n-1]
		if m.Position == view.BelowBar {
			sar = t.paint(signal.ToneProfit, "up")
		} else {
			sar = t.paint(signal.ToneLoss, "down")
		}
	}
	fmt.Fprintf(t.out, "[chart %s] %d candles, last close %s, SAR %s (%s)\n",
		v.Timeframe, len(v.Candles), view.Money(last.Close), sar, mode)
}

// RenderScreener prints the top gainers table.
func (t *Terminal) RenderScreener(v view.ScreenerView) {
	t.run(FrameScreener, func() { t.paintScreener(v) })
}

func (t *Terminal) paintScreener(v view.ScreenerView) {
	tw := t.newTable("Top Gainers")
	tw.AppendHeader(table.Row{"#", "Symbol", "Price", "Change"})
	for _, r := range v.Rows {
		tw.AppendRow(table.Row{r.Rank, r.Symbol, view.OptionalMoney(r.Price), t.paint(r.Tone, view.Percent(r.Change))})
	}
	tw.Render()
}

// Notify prints the notification on its own line.
func (t *Terminal) Notify(n Notification) {
	t.run("", func() { t.paintNotification(n) })
}

func (t *Terminal) paintNotification(n Notification) {
	tone := signal.ToneProfit
	tag := "OK"
	if n.Level == LevelError {
		tone, tag = signal.ToneLoss, "ERROR"
	}
	fmt.Fprintf(t.out, "%s %s\n", t.paint(tone, "["+tag+"]"), n.Message)
}

// Hold queues all output until the returned func is called, so an interactive
// prompt is not overwritten by periodic repaints. Only the latest view of each
// kind is kept; notifications are all kept.
func (t *Terminal) Hold() (release func()) {
	t.mu.Lock()
	t.held = true
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.held = false
		for _, p := range t.pending {
			p.paint()
		}
		t.pending = nil
	}
}

func (t *Terminal) run(kind string, paint func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.held {
		paint()
		return
	}
	if kind != "" {
		for i := range t.pending {
			if t.pending[i].kind == kind {
				t.pending[i].paint = paint
				return
			}
		}
	}
	t.pending = append(t.pending, pendingPaint{kind: kind, paint: paint})
}
