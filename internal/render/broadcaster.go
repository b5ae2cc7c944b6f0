package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"trading-dashboard-go/internal/metrics"
	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/view"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// 出站帧类型
const (
	FrameStatus       = "status"
	FrameChart        = "chart"
	FrameScreener     = "screener"
	FrameNotification = "notification"
)

// 入站消息类型
const (
	MsgRangeChanged = "range_changed"
	MsgTimeframe    = "timeframe"
)

// SourceFit marks a range change caused by the page's own auto-fit.
const SourceFit = "fit"

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame 是推送给浏览器的一条消息
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type chartFrame struct {
	View view.ChartView `json:"view"`
	Fit  bool           `json:"fit"`
}

// inbound is a message from the page. From/To are unix seconds, matching the
// chart's time scale.
type inbound struct {
	Type      string `json:"type"`
	From      int64  `json:"from"`
	To        int64  `json:"to"`
	Source    string `json:"source"`
	Timeframe string `json:"timeframe"`
}

// ControlHandler receives viewport and timeframe events from connected pages.
type ControlHandler interface {
	RangeChanged(r models.TimeRange, programmatic bool)
	SwitchTimeframe(tf models.Timeframe)
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster is a WebSocket hub. Every rendered view is pushed to all
// connected pages; a newly connected page first receives the latest frame of
// each type.
type Broadcaster struct {
	logger  *zap.Logger
	control ControlHandler

	mu      sync.RWMutex
	clients map[*wsClient]bool
	latest  map[string][]byte
}

// NewBroadcaster 创建 WebSocket 广播器。control 可以为 nil。
func NewBroadcaster(control ControlHandler, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		logger:  logger,
		control: control,
		clients: make(map[*wsClient]bool),
		latest:  make(map[string][]byte),
	}
}

// SetControl wires the inbound event handler after construction.
func (b *Broadcaster) SetControl(control ControlHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.control = control
}

// Handler serves /ws and /metrics.
func (b *Broadcaster) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", b)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (b *Broadcaster) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("websocket server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b.closeAll()
		return srv.Shutdown(shutdownCtx)
	}
}

func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("failed to upgrade websocket", zap.Error(err))
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	b.clients[c] = true
	for _, typ := range []string{FrameStatus, FrameChart, FrameScreener} {
		if msg, ok := b.latest[typ]; ok {
			c.send <- msg
		}
	}
	b.mu.Unlock()
	metrics.WSClients.Inc()

	go b.writePump(c)
	b.readPump(c)
}

func (b *Broadcaster) readPump(c *wsClient) {
	defer b.remove(c)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			b.logger.Debug("ignoring malformed websocket message", zap.Error(err))
			continue
		}
		b.dispatch(msg)
	}
}

func (b *Broadcaster) dispatch(msg inbound) {
	b.mu.RLock()
	control := b.control
	b.mu.RUnlock()
	if control == nil {
		return
	}

	switch msg.Type {
	case MsgRangeChanged:
		r := models.TimeRange{From: time.Unix(msg.From, 0), To: time.Unix(msg.To, 0)}
		control.RangeChanged(r, msg.Source == SourceFit)
	case MsgTimeframe:
		tf, err := models.ParseTimeframe(msg.Timeframe)
		if err != nil {
			b.logger.Warn("ignoring timeframe switch", zap.Error(err))
			return
		}
		control.SwitchTimeframe(tf)
	default:
		b.logger.Debug("unknown websocket message type", zap.String("type", msg.Type))
	}
}

func (b *Broadcaster) writePump(c *wsClient) {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (b *Broadcaster) remove(c *wsClient) {
	b.mu.Lock()
	if b.clients[c] {
		delete(b.clients, c)
		close(c.send)
		metrics.WSClients.Dec()
	}
	b.mu.Unlock()
	c.conn.Close()
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
		metrics.WSClients.Dec()
	}
}

// ClientCount returns the number of connected pages.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) broadcast(typ string, payload any, keep bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to encode frame", zap.String("type", typ), zap.Error(err))
		return
	}
	msg, err := json.Marshal(Frame{Type: typ, Data: data})
	if err != nil {
		b.logger.Error("failed to encode frame", zap.String("type", typ), zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if keep {
		b.latest[typ] = msg
	}
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			// 慢客户端直接丢帧
		}
	}
}

func (b *Broadcaster) RenderStatus(v view.StatusView) {
	b.broadcast(FrameStatus, v, true)
}

func (b *Broadcaster) RenderChart(v view.ChartView, fit bool) {
	b.broadcast(FrameChart, chartFrame{View: v, Fit: fit}, true)
}

func (b *Broadcaster) RenderScreener(v view.ScreenerView) {
	b.broadcast(FrameScreener, v, true)
}

func (b *Broadcaster) Notify(n Notification) {
	b.broadcast(FrameNotification, n, false)
}
