package view

import (
	"time"

	"trading-dashboard-go/internal/models"

	"github.com/shopspring/decimal"
)

// MarkerPosition 决定SAR标记画在K线上方还是下方
type MarkerPosition string

const (
	BelowBar MarkerPosition = "belowBar"
	AboveBar MarkerPosition = "aboveBar"
)

// CandleView 是带有合成时间戳的K线
type CandleView struct {
	Time  time.Time       `json:"time"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// Marker 是一个SAR标记
type Marker struct {
	Time     time.Time      `json:"time"`
	Position MarkerPosition `json:"position"`
	Shape    string         `json:"shape"`
	Color    string         `json:"color"`
}

// ChartView 是价格图表的视图
type ChartView struct {
	Timeframe models.Timeframe `json:"timeframe"`
	Candles   []CandleView     `json:"candles"`
	Markers   []Marker         `json:"markers"`
}

// BuildChart stamps candle i of n with now-(n-1-i)*CandleStep, so the newest
// candle sits at now, regardless of the timeframe. SAR points are matched to
// candles by index; points past the last candle are dropped.
func BuildChart(tf models.Timeframe, data models.ChartData, now time.Time) ChartView {
	now = now.Truncate(time.Second)
	n := len(data.Candles)

	cv := ChartView{
		Timeframe: tf,
		Candles:   make([]CandleView, n),
		Markers:   make([]Marker, 0, min(n, len(data.SarPoints))),
	}
	for i, c := range data.Candles {
		cv.Candles[i] = CandleView{
			Time:  now.Add(-time.Duration(n-1-i) * CandleStep),
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		}
	}

	for i, p := range data.SarPoints {
		if i >= n {
			break
		}
		m := Marker{Time: cv.Candles[i].Time, Color: p.Color}
		if p.Trend == models.TrendUp {
			m.Position, m.Shape = BelowBar, "arrowUp"
		} else {
			m.Position, m.Shape = AboveBar, "arrowDown"
		}
		cv.Markers = append(cv.Markers, m)
	}
	return cv
}
