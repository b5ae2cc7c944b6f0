// Package valuation derives unrealized P&L and display fields for the open
// position. No rounding happens here.
package valuation

import (
	"strings"
	"time"

	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/signal"

	"github.com/shopspring/decimal"
)

// Valuation 是持仓面板需要的全部派生字段
type Valuation struct {
	Side       models.Side      `json:"side"`
	SideLabel  string           `json:"side_label"`
	SideTone   signal.Tone      `json:"side_tone"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	SizeBase   decimal.Decimal  `json:"size_base"`
	Notional   decimal.Decimal  `json:"notional"`
	EntryTime  *time.Time       `json:"entry_time,omitempty"`
	HasPnL     bool             `json:"has_pnl"`
	PnL        decimal.Decimal  `json:"pnl"`
	PnLTone    signal.Tone      `json:"pnl_tone,omitempty"`
	MarkPrice  *decimal.Decimal `json:"mark_price,omitempty"`
}

// Valuate computes the position's P&L at currentPrice. A nil currentPrice
// leaves HasPnL false. Zero P&L is profit-toned.
func Valuate(p models.Position, currentPrice *decimal.Decimal) Valuation {
	v := Valuation{
		Side:       p.Side,
		SideLabel:  strings.ToUpper(string(p.Side)),
		SideTone:   SideTone(p.Side),
		EntryPrice: p.EntryPrice,
		SizeBase:   p.SizeBase,
		Notional:   p.Notional,
	}
	if p.EntryTime != nil && !p.EntryTime.IsZero() {
		t := p.EntryTime.Time
		v.EntryTime = &t
	}

	if currentPrice == nil {
		return v
	}

	price := *currentPrice
	v.MarkPrice = &price
	v.HasPnL = true
	if p.Side == models.Short {
		v.PnL = p.EntryPrice.Sub(price).Mul(p.SizeBase)
	} else {
		v.PnL = price.Sub(p.EntryPrice).Mul(p.SizeBase)
	}
	v.PnLTone = PnLTone(v.PnL)
	return v
}

// PnLTone classifies a P&L value; zero counts as profit.
func PnLTone(pnl decimal.Decimal) signal.Tone {
	if pnl.IsNegative() {
		return signal.ToneLoss
	}
	return signal.ToneProfit
}

// SideTone 多头为盈利色, 空头为亏损色
func SideTone(side models.Side) signal.Tone {
	if side == models.Long {
		return signal.ToneProfit
	}
	return signal.ToneLoss
}
