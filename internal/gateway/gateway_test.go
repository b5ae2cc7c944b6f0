package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"trading-dashboard-go/internal/client"
	"trading-dashboard-go/internal/render"
	"trading-dashboard-go/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBackend struct {
	sync.Mutex
	verifyOK    bool
	verifyErr   error
	execResult  *client.CommandResult
	execErr     error
	verifyCalls int
	execCalls   []client.Command
	requestIDs  []string
}

func (m *mockBackend) VerifyPassword(ctx context.Context, password string) (bool, error) {
	m.Lock()
	defer m.Unlock()
	m.verifyCalls++
	return m.verifyOK, m.verifyErr
}

func (m *mockBackend) Execute(ctx context.Context, cmd client.Command, requestID string) (*client.CommandResult, error) {
	m.Lock()
	defer m.Unlock()
	m.execCalls = append(m.execCalls, cmd)
	m.requestIDs = append(m.requestIDs, requestID)
	if m.execErr != nil {
		return nil, m.execErr
	}
	if m.execResult == nil {
		return &client.CommandResult{}, nil
	}
	return m.execResult, nil
}

type staticPrompter struct {
	password string
	ok       bool
	calls    int
}

func (p *staticPrompter) PromptPassword(ctx context.Context, cmd client.Command) (string, bool) {
	p.calls++
	return p.password, p.ok
}

type mockNotifier struct {
	notes []render.Notification
}

func (n *mockNotifier) Notify(note render.Notification) {
	n.notes = append(n.notes, note)
}

type mockRefresher struct {
	feeds []scheduler.Feed
}

func (r *mockRefresher) Refresh(feed scheduler.Feed) bool {
	r.feeds = append(r.feeds, feed)
	return true
}

type fixture struct {
	backend   *mockBackend
	prompter  *staticPrompter
	notifier  *mockNotifier
	refresher *mockRefresher
	gw        *Gateway
}

func newFixture(b *mockBackend, p *staticPrompter) *fixture {
	f := &fixture{backend: b, prompter: p, notifier: &mockNotifier{}, refresher: &mockRefresher{}}
	f.gw = New(b, p, f.notifier, f.refresher, zap.NewNop())
	return f
}

func TestCancelSendsNothing(t *testing.T) {
	f := newFixture(&mockBackend{verifyOK: true}, &staticPrompter{ok: false})

	out := f.gw.Run(context.Background(), client.CommandStop)
	assert.Equal(t, Cancelled, out.Kind)
	assert.Equal(t, 0, f.backend.verifyCalls)
	assert.Empty(t, f.backend.execCalls)
	assert.Empty(t, f.notifier.notes)
	assert.Empty(t, f.refresher.feeds)
}

func TestIncorrectPassword(t *testing.T) {
	f := newFixture(&mockBackend{verifyOK: false}, &staticPrompter{password: "nope", ok: true})

	out := f.gw.Run(context.Background(), client.CommandStart)
	assert.Equal(t, VerifyFailed, out.Kind)
	assert.Equal(t, 1, f.backend.verifyCalls)
	assert.Empty(t, f.backend.execCalls, "command endpoint never called")
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, render.LevelError, f.notifier.notes[0].Level)
	assert.Equal(t, MsgIncorrectPassword, f.notifier.notes[0].Message)
}

func TestVerificationTransportFailure(t *testing.T) {
	b := &mockBackend{verifyErr: &client.TransportError{Op: "verify_password", Err: errors.New("eof")}}
	f := newFixture(b, &staticPrompter{password: "pw", ok: true})

	out := f.gw.Run(context.Background(), client.CommandStart)
	assert.Equal(t, VerifyError, out.Kind)
	assert.Empty(t, b.execCalls)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, MsgVerificationFailed, f.notifier.notes[0].Message)
}

func TestSuccessMessages(t *testing.T) {
	tests := []struct {
		cmd         client.Command
		serverMsg   string
		want        string
		wantRefresh bool
	}{
		{client.CommandStart, "", "Bot started successfully", false},
		{client.CommandStart, "Bot is now running", "Bot is now running", false},
		{client.CommandStop, "", "Bot stopped successfully", false},
		{client.CommandClosePosition, "", "Position closed successfully", false},
		{client.CommandDeleteLastTrade, "", "Last trade deleted successfully", true},
		{client.CommandResetBalance, "", "Balance reset successfully", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd)+"/"+tt.want, func(t *testing.T) {
			b := &mockBackend{verifyOK: true, execResult: &client.CommandResult{Message: tt.serverMsg}}
			f := newFixture(b, &staticPrompter{password: "pw", ok: true})

			out := f.gw.Run(context.Background(), tt.cmd)
			assert.Equal(t, Succeeded, out.Kind)
			assert.Equal(t, []client.Command{tt.cmd}, b.execCalls, "exactly one command request")
			assert.NotEmpty(t, b.requestIDs[0])
			assert.Equal(t, out.RequestID, b.requestIDs[0])
			require.Len(t, f.notifier.notes, 1)
			assert.Equal(t, render.LevelSuccess, f.notifier.notes[0].Level)
			assert.Equal(t, tt.want, f.notifier.notes[0].Message)
			if tt.wantRefresh {
				assert.Equal(t, []scheduler.Feed{scheduler.FeedStatus}, f.refresher.feeds)
			} else {
				assert.Empty(t, f.refresher.feeds)
			}
		})
	}
}

func TestCommandFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind OutcomeKind
		want string
	}{
		{"server error message", &client.APIError{Op: "stop", StatusCode: 409, Message: "Bot is not running"}, Failed, "Bot is not running"},
		{"fallback message", &client.APIError{Op: "reset", StatusCode: 500}, Failed, "Failed to reset balance"},
		{"no response", &client.TransportError{Op: "reset", Err: errors.New("connection reset")}, ConnectionError, MsgConnectionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{verifyOK: true, execErr: tt.err}
			f := newFixture(b, &staticPrompter{password: "pw", ok: true})

			cmd := client.CommandResetBalance
			if tt.name == "server error message" {
				cmd = client.CommandStop
			}
			out := f.gw.Run(context.Background(), cmd)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Len(t, b.execCalls, 1, "no retries")
			require.Len(t, f.notifier.notes, 1, "exactly one notification")
			assert.Equal(t, render.LevelError, f.notifier.notes[0].Level)
			assert.Equal(t, tt.want, f.notifier.notes[0].Message)
			assert.Empty(t, f.refresher.feeds, "no refresh after failure")
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(&mockBackend{verifyOK: true}, &staticPrompter{ok: true})
	out := f.gw.Run(context.Background(), client.Command("launch"))
	assert.Equal(t, Failed, out.Kind)
	assert.Error(t, out.Err)
	assert.Equal(t, 0, f.prompter.calls)
}

// End to end against an HTTP backend: a 500 on delete_last_trade yields one
// error notification and no status refresh.
func TestGatewayWithHTTPClient(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		switch r.URL.Path {
		case "/api/verify_password":
			w.Write([]byte(`{"success":true}`))
		case "/api/delete_last_trade":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"No trades to delete"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := client.NewClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)
	n := &mockNotifier{}
	r := &mockRefresher{}
	gw := New(c, &staticPrompter{password: "pw", ok: true}, n, r, zap.NewNop())

	out := gw.Run(context.Background(), client.CommandDeleteLastTrade)
	assert.Equal(t, Failed, out.Kind)
	require.Len(t, n.notes, 1)
	assert.Equal(t, "No trades to delete", n.notes[0].Message)
	assert.Empty(t, r.feeds)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits["/api/verify_password"])
	assert.Equal(t, 1, hits["/api/delete_last_trade"])
}

func TestRequestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newRequestID()
		require.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
