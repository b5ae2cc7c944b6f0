// Package render paints view-state. The dashboard core never formats output
// itself; it hands finished views to a Renderer.
package render

import (
	"time"

	"trading-dashboard-go/internal/view"
)

// Level 是通知的类型
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification 是一条展示给用户的提示
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Success builds a success notification stamped with the current time.
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg, Time: time.Now()}
}

// Error builds an error notification stamped with the current time.
func Error(msg string) Notification {
	return Notification{Level: LevelError, Message: msg, Time: time.Now()}
}

// Renderer is the external view collaborator. All calls come from the state
// manager's event loop, one at a time.
type Renderer interface {
	RenderStatus(v view.StatusView)
	// RenderChart replaces the chart series. When fit is false the current
	// visible range must be preserved.
	RenderChart(v view.ChartView, fit bool)
	RenderScreener(v view.ScreenerView)
	Notify(n Notification)
}

// Multi fans every call out to each renderer in order.
type Multi []Renderer

func (m Multi) RenderStatus(v view.StatusView) {
	for _, r := range m {
		r.RenderStatus(v)
	}
}

func (m Multi) RenderChart(v view.ChartView, fit bool) {
	for _, r := range m {
		r.RenderChart(v, fit)
	}
}

func (m Multi) RenderScreener(v view.ScreenerView) {
	for _, r := range m {
		r.RenderScreener(v)
	}
}

func (m Multi) Notify(n Notification) {
	for _, r := range m {
		r.Notify(n)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) RenderStatus(view.StatusView) {}
func (Nop) RenderChart(view.ChartView, bool) {}
func (Nop) RenderScreener(view.ScreenerView) {}
func (Nop) Notify(Notification) {}
