// Package view builds renderer-ready view-state from backend snapshots. All
// functions here are pure; renderers never look at raw snapshots.
package view

import (
	"strings"
	"time"

	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/signal"
	"trading-dashboard-go/internal/valuation"

	"github.com/shopspring/decimal"
)

// DefaultTradeLimit 是默认显示的最近成交条数
const DefaultTradeLimit = 50

// CandleStep is the fixed spacing of the fabricated candle timestamps.
const CandleStep = 60 * time.Second

// StatusView 是状态面板的完整视图
type StatusView struct {
	BotRunning   bool             `json:"bot_running"`
	RunningLabel string           `json:"running_label"`
	RunningTone  signal.Tone      `json:"running_tone"`
	Balance      decimal.Decimal  `json:"balance"`
	Available    decimal.Decimal  `json:"available"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
	Signal       signal.Reading   `json:"signal"`
	Position     PositionView     `json:"position"`
	Trades       []TradeRow       `json:"trades"`
	TradeCount   int              `json:"trade_count"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// PositionView is the position panel. When Open is false the panel shows the
// "no position" state and Valuation is nil, which also clears the P&L.
type PositionView struct {
	Open        bool                 `json:"open"`
	StatusLabel string               `json:"status_label"`
	Valuation   *valuation.Valuation `json:"valuation,omitempty"`
}

// TradeRow 是成交列表中的一行
type TradeRow struct {
	Side       models.Side     `json:"side"`
	SideLabel  string          `json:"side_label"`
	SideTone   signal.Tone     `json:"side_tone"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLTone    signal.Tone     `json:"pnl_tone"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
	Duration   string          `json:"duration,omitempty"`
}

// Options 控制视图构建
type Options struct {
	TradeLimit int
	Now        time.Time
}

// BuildStatus derives the status view from one snapshot. Nothing from earlier
// snapshots leaks in: a snapshot without an open position always yields the
// "no position" panel.
func BuildStatus(s *models.StatusSnapshot, opts Options) StatusView {
	v := StatusView{UpdatedAt: opts.Now}
	if s == nil {
		v.RunningLabel = "STOPPED"
		v.RunningTone = signal.ToneLoss
		v.Signal = signal.Evaluate(nil)
		v.Position = PositionView{StatusLabel: "No Position"}
		return v
	}

	v.BotRunning = s.BotRunning
	if s.BotRunning {
		v.RunningLabel, v.RunningTone = "RUNNING", signal.ToneProfit
	} else {
		v.RunningLabel, v.RunningTone = "STOPPED", signal.ToneLoss
	}
	v.Balance = s.Balance
	v.Available = s.Available
	price := priceOf(s)
	v.CurrentPrice = price
	v.Signal = signal.Evaluate(s.SARDirections)

	if s.InPosition && s.Position != nil {
		val := valuation.Valuate(*s.Position, price)
		v.Position = PositionView{
			Open:        true,
			StatusLabel: strings.ToUpper(string(s.Position.Side)),
			Valuation:   &val,
		}
	} else {
		v.Position = PositionView{StatusLabel: "No Position"}
	}

	v.Trades = RecentTrades(s.Trades, opts.TradeLimit)
	v.TradeCount = len(s.Trades)
	return v
}

// priceOf treats a zero price like a missing one, as the backend sends 0
// before the first ticker arrives.
func priceOf(s *models.StatusSnapshot) *decimal.Decimal {
	if s.CurrentPrice == nil || s.CurrentPrice.IsZero() {
		return nil
	}
	p := *s.CurrentPrice
	return &p
}

// RecentTrades returns the last limit trades, newest first. limit <= 0 uses
// DefaultTradeLimit.
func RecentTrades(trades []models.Trade, limit int) []TradeRow {
	if limit <= 0 {
		limit = DefaultTradeLimit
	}
	start := 0
	if len(trades) > limit {
		start = len(trades) - limit
	}

	rows := make([]TradeRow, 0, len(trades)-start)
	for i := len(trades) - 1; i >= start; i-- {
		t := trades[i]
		row := TradeRow{
			Side:       t.Side,
			SideLabel:  strings.ToUpper(string(t.Side)),
			SideTone:   valuation.SideTone(t.Side),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			PnL:        t.PnL,
			PnLTone:    valuation.PnLTone(t.PnL),
			Duration:   t.Duration,
		}
		if ts := t.ClosedAt(); ts != nil && !ts.IsZero() {
			closed := ts.Time
			row.ClosedAt = &closed
		}
		rows = append(rows, row)
	}
	return rows
}
