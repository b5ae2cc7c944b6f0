// Package viewport decides whether a chart data refresh may reset the visible
// range or must preserve the user's manual framing.
package viewport

import (
	"sync"

	"trading-dashboard-go/internal/models"
)

// Mode 是视口状态机的状态
type Mode int

const (
	Auto Mode = iota
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "MANUAL"
	}
	return "AUTO"
}

// State 是 ViewportState 的只读快照
type State struct {
	ManuallyAdjusted bool              `json:"manually_adjusted"`
	SavedRange       *models.TimeRange `json:"saved_range,omitempty"`
}

// Tracker starts in Auto. A user range change moves it to Manual; only an
// explicit timeframe switch brings it back.
type Tracker struct {
	mu         sync.Mutex
	mode       Mode
	savedRange *models.TimeRange
}

// NewTracker 创建一个处于 Auto 状态的跟踪器
func NewTracker() *Tracker {
	return &Tracker{mode: Auto}
}

// RangeChanged records a visible-range notification from the chart. Changes
// caused by our own auto-fit are reported with programmatic=true and ignored.
// It reports whether the tracker is now in Manual mode.
func (t *Tracker) RangeChanged(r models.TimeRange, programmatic bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if programmatic {
		return t.mode == Manual
	}
	t.mode = Manual
	saved := r
	t.savedRange = &saved
	return true
}

// SwitchTimeframe returns to Auto and forgets the stored range.
func (t *Tracker) SwitchTimeframe() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = Auto
	t.savedRange = nil
}

// ShouldAutoFit is asked after every successful chart data replacement.
func (t *Tracker) ShouldAutoFit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode == Auto
}

// Mode returns the current state.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Snapshot returns a copy of the tracked state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := State{ManuallyAdjusted: t.mode == Manual}
	if t.savedRange != nil {
		r := *t.savedRange
		s.SavedRange = &r
	}
	return s
}
