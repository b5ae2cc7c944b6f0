// Package signal turns the per-timeframe SAR directions of a status snapshot
// into a single consensus signal.
package signal

import "trading-dashboard-go/internal/models"

// Consensus 是多周期聚合后的信号
type Consensus string

const (
	ConsensusLong  Consensus = "LONG"
	ConsensusShort Consensus = "SHORT"
	ConsensusNone  Consensus = "NONE"
)

// Tone 是徽章的配色语义, 由渲染层映射到具体颜色
type Tone string

const (
	ToneProfit  Tone = "profit"
	ToneLoss    Tone = "loss"
	ToneNeutral Tone = "neutral"
)

// Badge 描述一个待渲染的徽章
type Badge struct {
	Timeframe models.Timeframe `json:"timeframe,omitempty"`
	Direction models.Direction `json:"direction,omitempty"`
	Label     string           `json:"label"`
	Tone      Tone             `json:"tone"`
}

// Reading is the full aggregator output: one badge per timeframe in display
// order plus the consensus badge.
type Reading struct {
	Badges         []Badge   `json:"badges"`
	Consensus      Consensus `json:"consensus"`
	ConsensusBadge Badge     `json:"consensus_badge"`
}

// Aggregate applies the unanimity rule over 1m, 5m and 15m. A missing or
// unknown reading always suppresses the signal. A nil map is all-unknown.
func Aggregate(directions map[models.Timeframe]models.Direction) Consensus {
	allMatch := true
	var match models.Direction

	for _, tf := range models.Timeframes {
		switch directions[tf] {
		case models.DirectionLong:
			if match == "" {
				match = models.DirectionLong
			} else if match != models.DirectionLong {
				allMatch = false
			}
		case models.DirectionShort:
			if match == "" {
				match = models.DirectionShort
			} else if match != models.DirectionShort {
				allMatch = false
			}
		default:
			allMatch = false
		}
	}

	if !allMatch || match == "" {
		return ConsensusNone
	}
	if match == models.DirectionLong {
		return ConsensusLong
	}
	return ConsensusShort
}

// Evaluate 计算聚合信号并生成全部徽章状态
func Evaluate(directions map[models.Timeframe]models.Direction) Reading {
	r := Reading{Badges: make([]Badge, 0, len(models.Timeframes))}
	for _, tf := range models.Timeframes {
		r.Badges = append(r.Badges, timeframeBadge(tf, directions[tf]))
	}

	r.Consensus = Aggregate(directions)
	switch r.Consensus {
	case ConsensusLong:
		r.ConsensusBadge = Badge{Label: "LONG SIGNAL", Tone: ToneProfit}
	case ConsensusShort:
		r.ConsensusBadge = Badge{Label: "SHORT SIGNAL", Tone: ToneLoss}
	default:
		r.ConsensusBadge = Badge{Label: "NO SIGNAL", Tone: ToneNeutral}
	}
	return r
}

func timeframeBadge(tf models.Timeframe, d models.Direction) Badge {
	switch d {
	case models.DirectionLong:
		return Badge{Timeframe: tf, Direction: d, Label: "LONG", Tone: ToneProfit}
	case models.DirectionShort:
		return Badge{Timeframe: tf, Direction: d, Label: "SHORT", Tone: ToneLoss}
	default:
		return Badge{Timeframe: tf, Direction: models.DirectionUnknown, Label: "N/A", Tone: ToneNeutral}
	}
}
