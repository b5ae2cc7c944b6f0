package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timeframe 定义了SAR指标使用的K线周期
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
)

// Timeframes is the fixed display and evaluation order.
var Timeframes = []Timeframe{Timeframe1m, Timeframe5m, Timeframe15m}

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Timeframes {
		if tf == known {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown timeframe %q (want 1m, 5m or 15m)", s)
}

// Direction 是单个周期的SAR方向
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionUnknown Direction = "unknown"
)

// UnmarshalJSON maps null and any unrecognised value to DirectionUnknown.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = DirectionUnknown
		return nil
	}
	if raw == nil {
		*d = DirectionUnknown
		return nil
	}
	switch Direction(strings.ToLower(*raw)) {
	case DirectionLong:
		*d = DirectionLong
	case DirectionShort:
		*d = DirectionShort
	default:
		*d = DirectionUnknown
	}
	return nil
}

// Side 定义了持仓或成交方向
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Trend 定义了SAR点的趋势
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO strings the backend
// produces. Zone-less values are read as local time.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON 解析后端返回的时间字符串
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == nil || *raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, *raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", *raw)
}

// MarshalJSON writes RFC 3339 so persisted snapshots round-trip.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// DashboardState 定义了需要持久化的仪表盘状态
type DashboardState struct {
	Timeframe  Timeframe       `json:"timeframe"`
	LastStatus *StatusSnapshot `json:"last_status,omitempty"`
	SavedAt    time.Time       `json:"saved_at"`
}
