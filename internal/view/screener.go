package view

import (
	"strings"

	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/signal"
	"trading-dashboard-go/internal/valuation"

	"github.com/shopspring/decimal"
)

// GainerRow 是涨幅榜的一行
type GainerRow struct {
	Rank   int              `json:"rank"`
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Change decimal.Decimal  `json:"change"`
	Tone   signal.Tone      `json:"tone"`
}

// ScreenerView 是涨幅榜视图
type ScreenerView struct {
	Rows []GainerRow `json:"rows"`
}

// BuildScreener keeps the backend order and ranks from 1.
func BuildScreener(g models.TopGainers) ScreenerView {
	sv := ScreenerView{Rows: make([]GainerRow, 0, len(g.Gainers))}
	for i, gainer := range g.Gainers {
		sv.Rows = append(sv.Rows, GainerRow{
			Rank:   i + 1,
			Symbol: strings.ToUpper(gainer.Symbol),
			Price:  gainer.Price,
			Change: gainer.Change,
			Tone:   valuation.PnLTone(gainer.Change),
		})
	}
	return sv
}
