// Package scheduler paces the dashboard's data feeds. Every feed has its own
// ticker and its own in-flight guard: a tick that arrives while the previous
// fetch of the same feed is still running is skipped, never queued.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trading-dashboard-go/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Feed 标识一个数据源
type Feed string

const (
	FeedStatus   Feed = "status"
	FeedChart    Feed = "chart"
	FeedScreener Feed = "screener"
)

// 默认轮询间隔
const (
	DefaultStatusInterval   = 3 * time.Second
	DefaultChartInterval    = 5 * time.Second
	DefaultScreenerInterval = 60 * time.Second
)

// FetchFunc performs one round-trip for a feed and applies its result. An
// error leaves the previously displayed data untouched.
type FetchFunc func(ctx context.Context) error

// FeedConfig 描述一个数据源的调度参数
type FeedConfig struct {
	Name     Feed
	Interval time.Duration
	Fetch    FetchFunc
	Eager    bool // 启动时立即拉取一次
}

type feed struct {
	FeedConfig
	inFlight atomic.Bool
	skipped  atomic.Int64
	fetched  atomic.Int64
}

// tryAcquire sets the guard. It fails if a fetch is already running.
func (f *feed) tryAcquire() bool {
	return f.inFlight.CompareAndSwap(false, true)
}

func (f *feed) release() {
	f.inFlight.Store(false)
}

// Scheduler 管理所有数据源的定时拉取
type Scheduler struct {
	feeds  map[Feed]*feed
	order  []Feed
	logger *zap.Logger

	mu     sync.Mutex
	runCtx context.Context
	wg     sync.WaitGroup
}

// New creates a scheduler for the given feeds. Feed names must be unique.
func New(logger *zap.Logger, configs ...FeedConfig) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		feeds:  make(map[Feed]*feed, len(configs)),
		logger: logger,
	}
	for _, cfg := range configs {
		if cfg.Fetch == nil {
			return nil, fmt.Errorf("feed %s: fetch func is nil", cfg.Name)
		}
		if cfg.Interval <= 0 {
			return nil, fmt.Errorf("feed %s: interval must be positive, got %v", cfg.Name, cfg.Interval)
		}
		if _, dup := s.feeds[cfg.Name]; dup {
			return nil, fmt.Errorf("feed %s registered twice", cfg.Name)
		}
		s.feeds[cfg.Name] = &feed{FeedConfig: cfg}
		s.order = append(s.order, cfg.Name)
	}
	return s, nil
}

// Run starts one ticker loop per feed and blocks until ctx is cancelled. It
// waits for in-flight fetches to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.runCtx != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.runCtx = ctx
	s.mu.Unlock()

	group, gctx := errgroup.WithContext(ctx)
	for _, name := range s.order {
		f := s.feeds[name]
		group.Go(func() error {
			s.loop(gctx, f)
			return nil
		})
	}
	err := group.Wait()

	s.mu.Lock()
	s.runCtx = nil
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Scheduler) loop(ctx context.Context, f *feed) {
	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()

	s.logger.Info("feed loop started", zap.String("feed", string(f.Name)), zap.Duration("interval", f.Interval))
	if f.Eager {
		s.spawn(ctx, f)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawn(ctx, f)
		}
	}
}

// spawn runs the fetch off the ticker goroutine so a slow request never makes
// the ticker buffer a tick for later.
func (s *Scheduler) spawn(ctx context.Context, f *feed) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(ctx, f)
	}()
}

// Tick runs one guarded fetch of the named feed on the calling goroutine. It
// reports false when the tick was skipped because the feed is busy.
func (s *Scheduler) Tick(ctx context.Context, name Feed) (bool, error) {
	f, ok := s.feeds[name]
	if !ok {
		return false, fmt.Errorf("unknown feed %q", name)
	}
	return s.tick(ctx, f), nil
}

func (s *Scheduler) tick(ctx context.Context, f *feed) (ran bool) {
	if !f.tryAcquire() {
		f.skipped.Add(1)
		metrics.FeedSkippedTicks.WithLabelValues(string(f.Name)).Inc()
		s.logger.Debug("tick skipped, fetch still in flight", zap.String("feed", string(f.Name)))
		return false
	}
	start := time.Now()
	defer func() {
		f.release()
		if r := recover(); r != nil {
			ran = true
			metrics.FeedFetches.WithLabelValues(string(f.Name), "error").Inc()
			s.logger.Error("feed fetch panicked", zap.String("feed", string(f.Name)), zap.Any("panic", r))
		}
	}()

	err := f.Fetch(ctx)
	f.fetched.Add(1)
	metrics.FeedLatency.WithLabelValues(string(f.Name)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetches.WithLabelValues(string(f.Name), "error").Inc()
		if ctx.Err() == nil {
			s.logger.Warn("feed fetch failed", zap.String("feed", string(f.Name)), zap.Error(err))
		}
		return true
	}
	metrics.FeedFetches.WithLabelValues(string(f.Name), "ok").Inc()
	return true
}

// Refresh asks for an immediate fetch of the named feed outside its regular
// cadence. The fetch respects the in-flight guard and runs asynchronously. It
// reports false when the scheduler is not running or the feed is unknown.
func (s *Scheduler) Refresh(name Feed) bool {
	f, ok := s.feeds[name]
	if !ok {
		s.logger.Warn("refresh requested for unknown feed", zap.String("feed", string(name)))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil || s.runCtx.Err() != nil {
		return false
	}
	s.spawn(s.runCtx, f)
	return true
}

// InFlight reports whether a fetch of the named feed is running.
func (s *Scheduler) InFlight(name Feed) bool {
	f, ok := s.feeds[name]
	return ok && f.inFlight.Load()
}

// Stats 是单个数据源的计数
type Stats struct {
	Fetched int64
	Skipped int64
}

// Stats returns the counters of the named feed.
func (s *Scheduler) Stats(name Feed) Stats {
	f, ok := s.feeds[name]
	if !ok {
		return Stats{}
	}
	return Stats{Fetched: f.fetched.Load(), Skipped: f.skipped.Load()}
}
