package statemanager

import (
	"context"
	"fmt"
	"time"

	"trading-dashboard-go/internal/scheduler"
)

// Intervals 是三个数据源的轮询间隔, 零值使用默认值
type Intervals struct {
	Status   time.Duration
	Chart    time.Duration
	Screener time.Duration
}

func (i Intervals) withDefaults() Intervals {
	if i.Status <= 0 {
		i.Status = scheduler.DefaultStatusInterval
	}
	if i.Chart <= 0 {
		i.Chart = scheduler.DefaultChartInterval
	}
	if i.Screener <= 0 {
		i.Screener = scheduler.DefaultScreenerInterval
	}
	return i
}

// StatusFeed fetches /api/status and applies it. A failed fetch dispatches
// nothing, so the previous snapshot stays on screen.
func (sm *StateManager) StatusFeed(src Source) scheduler.FetchFunc {
	return func(ctx context.Context) error {
		s, err := src.Status(ctx)
		if err != nil {
			return fmt.Errorf("fetch status: %w", err)
		}
		return sm.dispatchAndWait(ctx, StatusFetchedEvent, s)
	}
}

// ChartFeed fetches chart data for the timeframe selected when the request
// starts. The result is tagged with that timeframe so a late response for a
// previous selection can be recognised and dropped.
func (sm *StateManager) ChartFeed(src Source) scheduler.FetchFunc {
	return func(ctx context.Context) error {
		tf := sm.Timeframe()
		d, err := src.ChartData(ctx, tf)
		if err != nil {
			return fmt.Errorf("fetch chart data (%s): %w", tf, err)
		}
		return sm.dispatchAndWait(ctx, ChartFetchedEvent, ChartFetchedEventData{Timeframe: tf, Data: d})
	}
}

// ScreenerFeed fetches /api/top_gainers and applies it.
func (sm *StateManager) ScreenerFeed(src Source) scheduler.FetchFunc {
	return func(ctx context.Context) error {
		g, err := src.TopGainers(ctx)
		if err != nil {
			return fmt.Errorf("fetch top gainers: %w", err)
		}
		return sm.dispatchAndWait(ctx, ScreenerFetchedEvent, g)
	}
}

// Feeds returns the scheduler configuration of all three feeds. Each is
// fetched once at startup and then on its own interval.
func (sm *StateManager) Feeds(src Source, iv Intervals) []scheduler.FeedConfig {
	iv = iv.withDefaults()
	return []scheduler.FeedConfig{
		{Name: scheduler.FeedStatus, Interval: iv.Status, Fetch: sm.StatusFeed(src), Eager: true},
		{Name: scheduler.FeedChart, Interval: iv.Chart, Fetch: sm.ChartFeed(src), Eager: true},
		{Name: scheduler.FeedScreener, Interval: iv.Screener, Fetch: sm.ScreenerFeed(src), Eager: true},
	}
}
