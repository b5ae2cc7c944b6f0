package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config 定义了仪表盘的所有配置参数
type Config struct {
	BaseURL            string    `json:"base_url" mapstructure:"base_url"`                         // 后端地址, e.g. "http://localhost:8000"
	HTTPTimeoutSec     int       `json:"http_timeout_sec" mapstructure:"http_timeout_sec"`         // 单次请求超时(秒)
	StatusIntervalMs   int       `json:"status_interval_ms" mapstructure:"status_interval_ms"`     // 状态轮询间隔
	ChartIntervalMs    int       `json:"chart_interval_ms" mapstructure:"chart_interval_ms"`       // K线轮询间隔
	ScreenerIntervalMs int       `json:"screener_interval_ms" mapstructure:"screener_interval_ms"` // 涨幅榜轮询间隔
	TradeDisplayLimit  int       `json:"trade_display_limit" mapstructure:"trade_display_limit"`   // 显示的最近成交条数
	DefaultTimeframe   string    `json:"default_timeframe" mapstructure:"default_timeframe"`       // 默认K线周期
	DBPath             string    `json:"db_path" mapstructure:"db_path"`                           // BadgerDB 目录
	ListenAddr         string    `json:"listen_addr" mapstructure:"listen_addr"`                   // WebSocket/metrics 监听地址, 为空则不启用
	Terminal           bool      `json:"terminal" mapstructure:"terminal"`                         // 是否启用终端渲染
	LogConfig          LogConfig `json:"log" mapstructure:"log"`
}

// LogConfig 定义了日志相关的配置
type LogConfig struct {
	Level      string `json:"level" mapstructure:"level"`             // 日志级别, e.g., "debug", "info", "warn", "error"
	Output     string `json:"output" mapstructure:"output"`           // 输出模式: "console", "file", "both"
	File       string `json:"file" mapstructure:"file"`               // 日志文件路径
	MaxSize    int    `json:"max_size" mapstructure:"max_size"`       // 单个日志文件的最大大小 (MB)
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"` // 保留的旧日志文件最大数量
	MaxAge     int    `json:"max_age" mapstructure:"max_age"`         // 旧日志文件的最大保留天数
	Compress   bool   `json:"compress" mapstructure:"compress"`       // 是否压缩旧日志文件
}

// StatusSnapshot 是 /api/status 的一次完整响应。收到后不可变，由下一次快照整体替换。
type StatusSnapshot struct {
	BotRunning    bool                    `json:"bot_running"`
	Balance       decimal.Decimal         `json:"balance"`
	Available     decimal.Decimal         `json:"available"`
	CurrentPrice  *decimal.Decimal        `json:"current_price,omitempty"`
	SARDirections map[Timeframe]Direction `json:"sar_directions,omitempty"`
	InPosition    bool                    `json:"in_position"`
	Position      *Position               `json:"position,omitempty"`
	Trades        []Trade                 `json:"trades,omitempty"`
}

// Clone returns a copy that shares no mutable state with s.
func (s *StatusSnapshot) Clone() *StatusSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.CurrentPrice != nil {
		p := *s.CurrentPrice
		c.CurrentPrice = &p
	}
	if s.SARDirections != nil {
		c.SARDirections = make(map[Timeframe]Direction, len(s.SARDirections))
		for k, v := range s.SARDirections {
			c.SARDirections[k] = v
		}
	}
	if s.Position != nil {
		p := *s.Position
		c.Position = &p
	}
	if s.Trades != nil {
		c.Trades = make([]Trade, len(s.Trades))
		copy(c.Trades, s.Trades)
	}
	return &c
}

// Position 定义了当前持仓, 由后端拥有, 客户端只读
type Position struct {
	Side       Side            `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	SizeBase   decimal.Decimal `json:"size_base"`
	Notional   decimal.Decimal `json:"notional"`
	EntryTime  *Timestamp      `json:"entry_time,omitempty"`
}

// Trade 记录一笔已完成的交易
type Trade struct {
	Side       Side            `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	PnL        decimal.Decimal `json:"pnl"`
	ExitTime   *Timestamp      `json:"exit_time,omitempty"`
	Time       *Timestamp      `json:"time,omitempty"` // 旧版后端使用的字段
	Duration   string          `json:"duration,omitempty"`
}

// ClosedAt returns the exit time, falling back to the legacy time field.
func (t Trade) ClosedAt() *Timestamp {
	if t.ExitTime != nil {
		return t.ExitTime
	}
	return t.Time
}

// Candle 是 /api/chart_data 返回的一根K线。后端不提供时间戳。
type Candle struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// SarPoint 是与K线按下标对齐的抛物线SAR点
type SarPoint struct {
	Trend Trend  `json:"trend"`
	Color string `json:"color"`
}

// ChartData 是 /api/chart_data 的响应
type ChartData struct {
	Candles   []Candle   `json:"candles"`
	SarPoints []SarPoint `json:"sar_points"`
}

// Gainer 是涨幅榜中的一行
type Gainer struct {
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Change decimal.Decimal  `json:"change"`
}

// TopGainers 是 /api/top_gainers 的响应
type TopGainers struct {
	Gainers []Gainer `json:"gainers"`
}

// TimeRange 是图表可见的时间范围
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// String 方法用于日志输出
func (r TimeRange) String() string {
	return fmt.Sprintf("%s..%s", r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
}
