package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"trading-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingBackend is a fake bot backend that remembers every request.
type recordingBackend struct {
	sync.Mutex
	paths    []string
	headers  []http.Header
	bodies   []map[string]string
	handlers map[string]http.HandlerFunc
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{handlers: make(map[string]http.HandlerFunc)}
}

func (b *recordingBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Lock()
	b.paths = append(b.paths, r.URL.Path)
	b.headers = append(b.headers, r.Header.Clone())
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.bodies = append(b.bodies, body)
	h := b.handlers[r.URL.Path]
	b.Unlock()

	if h == nil {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func newTestClient(t *testing.T, b *recordingBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestStatus(t *testing.T) {
	b := newRecordingBackend()
	b.handlers["/api/status"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bot_running":true,"balance":"100","available":"50","sar_directions":{"1m":"long"},"in_position":false,"trades":[]}`))
	}
	c := newTestClient(t, b)

	s, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, s.BotRunning)
	assert.Equal(t, "100", s.Balance.String())
	assert.Equal(t, models.DirectionLong, s.SARDirections[models.Timeframe1m])
	assert.Nil(t, s.CurrentPrice)
}

func TestChartDataSendsTimeframe(t *testing.T) {
	b := newRecordingBackend()
	var got string
	b.handlers["/api/chart_data"] = func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("timeframe")
		w.Write([]byte(`{"candles":[{"open":1,"high":2,"low":0.5,"close":1.5}],"sar_points":[{"trend":"up","color":"#26a69a"}]}`))
	}
	c := newTestClient(t, b)

	d, err := c.ChartData(context.Background(), models.Timeframe5m)
	require.NoError(t, err)
	assert.Equal(t, "5m", got)
	require.Len(t, d.Candles, 1)
	assert.Equal(t, models.TrendUp, d.SarPoints[0].Trend)
}

func TestGetNon2xxIsAPIError(t *testing.T) {
	b := newRecordingBackend()
	b.handlers["/api/top_gainers"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"exchange down"}`))
	}
	c := newTestClient(t, b)

	_, err := c.TopGainers(context.Background())
	ae, ok := AsAPIError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
	assert.Equal(t, "exchange down", ae.Message)
}

func TestGetBadBodyIsTransportError(t *testing.T) {
	b := newRecordingBackend()
	b.handlers["/api/status"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}
	c := newTestClient(t, b)

	_, err := c.Status(context.Background())
	assert.True(t, IsTransport(err), "got %v", err)
}

func TestUnreachableIsTransportError(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), CommandStart, "")
	assert.True(t, IsTransport(err), "got %v", err)
}

func TestVerifyPassword(t *testing.T) {
	b := newRecordingBackend()
	b.handlers["/api/verify_password"] = func(w http.ResponseWriter, r *http.Request) {
		b.Lock()
		pw := b.bodies[len(b.bodies)-1]["password"]
		b.Unlock()
		if pw == "secret" {
			w.Write([]byte(`{"success":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false}`))
	}
	c := newTestClient(t, b)

	ok, err := c.VerifyPassword(context.Background(), "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.VerifyPassword(context.Background(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	b.Lock()
	assert.Equal(t, "application/json", b.headers[0].Get("Content-Type"))
	b.Unlock()
}

func TestExecute(t *testing.T) {
	b := newRecordingBackend()
	b.handlers["/api/start_bot"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Bot started"}`))
	}
	b.handlers["/api/stop_bot"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Bot is not running"}`))
	}
	b.handlers["/api/close_position"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`Internal Server Error`))
	}
	b.handlers["/api/reset_balance"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}
	c := newTestClient(t, b)
	ctx := context.Background()

	res, err := c.Execute(ctx, CommandStart, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Bot started", res.Message)
	b.Lock()
	assert.Equal(t, "req-1", b.headers[0].Get(RequestIDHeader))
	assert.Equal(t, "application/json", b.headers[0].Get("Content-Type"))
	b.Unlock()

	_, err = c.Execute(ctx, CommandStop, "")
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Bot is not running", ae.Message)

	_, err = c.Execute(ctx, CommandClosePosition, "")
	ae, ok = AsAPIError(err)
	require.True(t, ok, "non-2xx is a command failure regardless of body shape")
	assert.Empty(t, ae.Message)

	_, err = c.Execute(ctx, CommandResetBalance, "")
	assert.True(t, IsTransport(err))
}

func TestParseCommand(t *testing.T) {
	for _, cmd := range Commands {
		parsed, err := ParseCommand(" " + string(cmd) + " ")
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
		assert.NotEmpty(t, cmd.Path())
	}
	_, err := ParseCommand("launch")
	assert.Error(t, err)
}

func TestResolveKeepsBasePath(t *testing.T) {
	c, err := NewClient("http://example.com/bot/", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/bot/api/status", c.resolve("/api/status", nil))
}
