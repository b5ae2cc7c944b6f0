package statemanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trading-dashboard-go/internal/metrics"
	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/persistence"
	"trading-dashboard-go/internal/render"
	"trading-dashboard-go/internal/scheduler"
	"trading-dashboard-go/internal/view"
	"trading-dashboard-go/internal/viewport"

	"go.uber.org/zap"
)

// ErrStopped is returned when an event is dispatched after Stop.
var ErrStopped = errors.New("state manager stopped")

// EventType defines the type of a normalized event
type EventType int

const (
	StatusFetchedEvent EventType = iota
	ChartFetchedEvent
	ScreenerFetchedEvent
	TimeframeSwitchedEvent
	RangeChangedEvent
	NotifyEvent
)

func (t EventType) String() string {
	switch t {
	case StatusFetchedEvent:
		return "StatusFetched"
	case ChartFetchedEvent:
		return "ChartFetched"
	case ScreenerFetchedEvent:
		return "ScreenerFetched"
	case TimeframeSwitchedEvent:
		return "TimeframeSwitched"
	case RangeChangedEvent:
		return "RangeChanged"
	case NotifyEvent:
		return "Notify"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// NormalizedEvent is a standardized internal representation of an event
type NormalizedEvent struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}

	done chan struct{}
}

// ChartFetchedEventData carries chart data together with the timeframe it was
// requested for.
type ChartFetchedEventData struct {
	Timeframe models.Timeframe
	Data      *models.ChartData
}

// RangeChangedEventData 是图表可见范围变化
type RangeChangedEventData struct {
	Range        models.TimeRange
	Programmatic bool
}

// Refresher triggers an out-of-cadence fetch. It breaks the dependency cycle
// between the StateManager and the scheduler that feeds it.
type Refresher interface {
	Refresh(feed scheduler.Feed) bool
}

// Source is the part of the backend client the feeds need.
type Source interface {
	Status(ctx context.Context) (*models.StatusSnapshot, error)
	ChartData(ctx context.Context, tf models.Timeframe) (*models.ChartData, error)
	TopGainers(ctx context.Context) (*models.TopGainers, error)
}

// Options 控制视图构建
type Options struct {
	TradeLimit int
	Now        func() time.Time
}

// StateManager is the dashboard's single control thread. Every feed result
// and user event is applied serially by eventLoop; only eventLoop mutates the
// current snapshots and only eventLoop calls the renderer.
type StateManager struct {
	mu       sync.RWMutex
	state    *models.DashboardState
	chart    *models.ChartData
	screener *models.TopGainers

	tracker         *viewport.Tracker
	renderer        render.Renderer
	refresher       Refresher
	repo            persistence.StateRepository
	opts            Options
	eventChannel    chan NormalizedEvent
	persistenceChan chan *models.DashboardState
	stopChan        chan bool
	stopOnce        sync.Once
	started         bool
	persistDone     chan struct{}
	logger          *zap.Logger
}

// NewStateManager creates a new StateManager. initialState may carry a
// restored timeframe; a nil or empty one falls back to 1m.
func NewStateManager(initialState *models.DashboardState, repo persistence.StateRepository, renderer render.Renderer, tracker *viewport.Tracker, opts Options, logger *zap.Logger) *StateManager {
	state := &models.DashboardState{Timeframe: models.Timeframe1m}
	if initialState != nil {
		state.LastStatus = initialState.LastStatus.Clone()
		state.SavedAt = initialState.SavedAt
		if initialState.Timeframe != "" {
			state.Timeframe = initialState.Timeframe
		}
	}
	if renderer == nil {
		renderer = render.Nop{}
	}
	if tracker == nil {
		tracker = viewport.NewTracker()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateManager{
		state:           state,
		tracker:         tracker,
		renderer:        renderer,
		repo:            repo,
		opts:            opts,
		eventChannel:    make(chan NormalizedEvent, 1024), // Buffered channel
		persistenceChan: make(chan *models.DashboardState, 128),
		stopChan:        make(chan bool),
		persistDone:     make(chan struct{}),
		logger:          logger,
	}
}

// SetRefresher wires the scheduler once it has been built from this
// manager's feeds.
func (sm *StateManager) SetRefresher(r Refresher) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.refresher = r
}

// Start begins the state manager's event processing and persistence loops.
func (sm *StateManager) Start() {
	sm.mu.Lock()
	sm.started = true
	sm.mu.Unlock()
	go sm.eventLoop()
	go sm.persistenceLoop()
	sm.logger.Sugar().Info("StateManager started.")
}

// Stop shuts down both loops. Snapshots already queued for persistence are
// written before Stop returns.
func (sm *StateManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
		sm.mu.RLock()
		started := sm.started
		sm.mu.RUnlock()
		if started {
			<-sm.persistDone
		}
		sm.logger.Sugar().Info("StateManager stopped.")
	})
}

// DispatchEvent sends an event to the StateManager for processing.
func (sm *StateManager) DispatchEvent(event NormalizedEvent) error {
	select {
	case sm.eventChannel <- event:
		return nil
	case <-sm.stopChan:
		return ErrStopped
	}
}

// dispatchAndWait blocks until eventLoop has applied the event, so a feed's
// in-flight guard covers rendering as well as the request.
func (sm *StateManager) dispatchAndWait(ctx context.Context, t EventType, data interface{}) error {
	done := make(chan struct{})
	ev := NormalizedEvent{Type: t, Timestamp: sm.opts.Now(), Data: data, done: done}
	if err := sm.DispatchEvent(ev); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-sm.stopChan:
		return ErrStopped
	}
}

// GetStateSnapshot returns a deep copy of the current state for safe, concurrent reading.
func (sm *StateManager) GetStateSnapshot() *models.DashboardState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.deepCopy()
}

// Timeframe returns the currently selected chart timeframe.
func (sm *StateManager) Timeframe() models.Timeframe {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state.Timeframe
}

// Viewport returns the chart viewport state.
func (sm *StateManager) Viewport() viewport.State {
	return sm.tracker.Snapshot()
}

// deepCopy creates a deep copy of the DashboardState to prevent data races.
// Callers hold sm.mu.
func (sm *StateManager) deepCopy() *models.DashboardState {
	if sm.state == nil {
		return nil
	}
	stateCopy := *sm.state
	stateCopy.LastStatus = sm.state.LastStatus.Clone()
	return &stateCopy
}

// eventLoop is the core processing loop that handles all incoming events serially.
func (sm *StateManager) eventLoop() {
	for {
		select {
		case event := <-sm.eventChannel:
			sm.processEvent(event)
			if event.done != nil {
				close(event.done)
			}
		case <-sm.stopChan:
			return
		}
	}
}

// persistenceLoop handles the asynchronous saving of state snapshots.
func (sm *StateManager) persistenceLoop() {
	defer close(sm.persistDone)
	for {
		select {
		case stateToSave := <-sm.persistenceChan:
			sm.save(stateToSave)
		case <-sm.stopChan:
			for {
				select {
				case stateToSave := <-sm.persistenceChan:
					sm.save(stateToSave)
				default:
					return
				}
			}
		}
	}
}

func (sm *StateManager) save(state *models.DashboardState) {
	if sm.repo == nil {
		return
	}
	if err := sm.repo.SaveState(state); err != nil {
		sm.logger.Sugar().Errorf("Failed to save dashboard state: %v", err)
	}
}

// processEvent contains the logic to mutate the state based on an event.
func (sm *StateManager) processEvent(event NormalizedEvent) {
	switch event.Type {
	case StatusFetchedEvent:
		if s, ok := event.Data.(*models.StatusSnapshot); ok && s != nil {
			sm.handleStatus(s, event.Timestamp)
		} else {
			sm.logger.Sugar().Warnf("Received StatusFetchedEvent with unexpected data type: %T", event.Data)
		}
	case ChartFetchedEvent:
		if data, ok := event.Data.(ChartFetchedEventData); ok && data.Data != nil {
			sm.handleChart(data, event.Timestamp)
		} else {
			sm.logger.Sugar().Warnf("Received ChartFetchedEvent with unexpected data type: %T", event.Data)
		}
	case ScreenerFetchedEvent:
		if g, ok := event.Data.(*models.TopGainers); ok && g != nil {
			sm.mu.Lock()
			sm.screener = g
			sm.mu.Unlock()
			sm.renderer.RenderScreener(view.BuildScreener(*g))
		} else {
			sm.logger.Sugar().Warnf("Received ScreenerFetchedEvent with unexpected data type: %T", event.Data)
		}
	case TimeframeSwitchedEvent:
		if tf, ok := event.Data.(models.Timeframe); ok {
			sm.handleTimeframeSwitch(tf)
		} else {
			sm.logger.Sugar().Warnf("Received TimeframeSwitchedEvent with unexpected data type: %T", event.Data)
		}
	case RangeChangedEvent:
		if data, ok := event.Data.(RangeChangedEventData); ok {
			wasManual := sm.tracker.Mode() == viewport.Manual
			if manual := sm.tracker.RangeChanged(data.Range, data.Programmatic); manual && !wasManual {
				sm.logger.Debug("viewport switched to manual", zap.Stringer("range", data.Range))
			}
		} else {
			sm.logger.Sugar().Warnf("Received RangeChangedEvent with unexpected data type: %T", event.Data)
		}
	case NotifyEvent:
		if n, ok := event.Data.(render.Notification); ok {
			sm.renderer.Notify(n)
		} else {
			sm.logger.Sugar().Warnf("Received NotifyEvent with unexpected data type: %T", event.Data)
		}
	default:
		sm.logger.Sugar().Warnf("Received unknown event type: %v", event.Type)
	}
}

func (sm *StateManager) handleStatus(s *models.StatusSnapshot, at time.Time) {
	sm.mu.Lock()
	sm.state.LastStatus = s
	sm.state.SavedAt = at
	stateCopy := sm.deepCopy()
	sm.mu.Unlock()

	sm.renderer.RenderStatus(view.BuildStatus(s, view.Options{TradeLimit: sm.opts.TradeLimit, Now: at}))
	sm.persist(stateCopy)
}

func (sm *StateManager) handleChart(data ChartFetchedEventData, at time.Time) {
	sm.mu.Lock()
	current := sm.state.Timeframe
	if data.Timeframe != current {
		sm.mu.Unlock()
		metrics.StaleChartsDropped.Inc()
		sm.logger.Debug("dropping chart data for previous timeframe",
			zap.String("got", string(data.Timeframe)), zap.String("current", string(current)))
		return
	}
	sm.chart = data.Data
	sm.mu.Unlock()

	cv := view.BuildChart(data.Timeframe, *data.Data, at)
	sm.renderer.RenderChart(cv, sm.tracker.ShouldAutoFit())
}

func (sm *StateManager) handleTimeframeSwitch(tf models.Timeframe) {
	sm.mu.Lock()
	changed := sm.state.Timeframe != tf
	sm.state.Timeframe = tf
	if changed {
		sm.chart = nil
	}
	stateCopy := sm.deepCopy()
	refresher := sm.refresher
	sm.mu.Unlock()

	sm.tracker.SwitchTimeframe()
	sm.logger.Info("chart timeframe switched", zap.String("timeframe", string(tf)))
	sm.persist(stateCopy)
	if refresher != nil {
		refresher.Refresh(scheduler.FeedChart)
	}
}

func (sm *StateManager) persist(state *models.DashboardState) {
	select {
	case sm.persistenceChan <- state:
	case <-sm.stopChan:
	}
}

// RangeChanged forwards a chart visible-range notification to the event loop.
func (sm *StateManager) RangeChanged(r models.TimeRange, programmatic bool) {
	ev := NormalizedEvent{Type: RangeChangedEvent, Timestamp: sm.opts.Now(), Data: RangeChangedEventData{Range: r, Programmatic: programmatic}}
	if err := sm.DispatchEvent(ev); err != nil {
		sm.logger.Debug("range change dropped", zap.Error(err))
	}
}

// SwitchTimeframe asks the event loop to change the chart timeframe.
func (sm *StateManager) SwitchTimeframe(tf models.Timeframe) {
	ev := NormalizedEvent{Type: TimeframeSwitchedEvent, Timestamp: sm.opts.Now(), Data: tf}
	if err := sm.DispatchEvent(ev); err != nil {
		sm.logger.Debug("timeframe switch dropped", zap.Error(err))
	}
}

// Notify queues a notification for the renderer.
func (sm *StateManager) Notify(n render.Notification) {
	ev := NormalizedEvent{Type: NotifyEvent, Timestamp: sm.opts.Now(), Data: n}
	if err := sm.DispatchEvent(ev); err != nil {
		sm.logger.Debug("notification dropped", zap.String("message", n.Message), zap.Error(err))
	}
}
