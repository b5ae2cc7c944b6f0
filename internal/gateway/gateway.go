// Package gateway forwards privileged bot commands. Every command is gated by
// a password check against the backend; nothing is sent if the user cancels
// the prompt, and no request is ever retried.
package gateway

import (
	"context"
	"crypto/rand"
	"fmt"

	"trading-dashboard-go/internal/client"
	"trading-dashboard-go/internal/metrics"
	"trading-dashboard-go/internal/render"
	"trading-dashboard-go/internal/scheduler"

	"github.com/jxskiss/base62"
	"go.uber.org/zap"
)

// 固定的错误提示
const (
	MsgIncorrectPassword  = "Incorrect password"
	MsgVerificationFailed = "Password verification failed"
	MsgConnectionError    = "Server connection error"
)

type messages struct {
	success string
	failure string
}

var commandMessages = map[client.Command]messages{
	client.CommandStart:           {"Bot started successfully", "Failed to start bot"},
	client.CommandStop:            {"Bot stopped successfully", "Failed to stop bot"},
	client.CommandClosePosition:   {"Position closed successfully", "Failed to close position"},
	client.CommandDeleteLastTrade: {"Last trade deleted successfully", "Failed to delete last trade"},
	client.CommandResetBalance:    {"Balance reset successfully", "Failed to reset balance"},
}

// refreshesStatus lists commands whose success changes what the status feed
// shows right away.
var refreshesStatus = map[client.Command]bool{
	client.CommandDeleteLastTrade: true,
	client.CommandResetBalance:    true,
}

// Backend is the part of the API client the gateway needs.
type Backend interface {
	VerifyPassword(ctx context.Context, password string) (bool, error)
	Execute(ctx context.Context, cmd client.Command, requestID string) (*client.CommandResult, error)
}

// Prompter asks the user for the dashboard password. ok is false when the
// user cancelled.
type Prompter interface {
	PromptPassword(ctx context.Context, cmd client.Command) (password string, ok bool)
}

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(n render.Notification)
}

// Refresher forces an immediate fetch of a feed.
type Refresher interface {
	Refresh(feed scheduler.Feed) bool
}

// OutcomeKind 是一次命令尝试的结果分类
type OutcomeKind int

const (
	Cancelled OutcomeKind = iota
	VerifyFailed
	VerifyError
	Succeeded
	Failed
	ConnectionError
)

func (k OutcomeKind) String() string {
	switch k {
	case Cancelled:
		return "cancelled"
	case VerifyFailed:
		return "verify_failed"
	case VerifyError:
		return "verify_error"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case ConnectionError:
		return "connection_error"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome describes what happened to one command attempt. Message is the text
// shown to the user, empty for Cancelled.
type Outcome struct {
	Kind      OutcomeKind
	Command   client.Command
	Message   string
	RequestID string
	Err       error
}

// Gateway runs the verify-then-execute sequence.
type Gateway struct {
	backend   Backend
	prompter  Prompter
	notifier  Notifier
	refresher Refresher
	logger    *zap.Logger
}

// New 创建命令网关。refresher 可以为 nil。
func New(backend Backend, prompter Prompter, notifier Notifier, refresher Refresher, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		backend:   backend,
		prompter:  prompter,
		notifier:  notifier,
		refresher: refresher,
		logger:    logger,
	}
}

// Run prompts for the password, verifies it and, if accepted, sends exactly
// one request for cmd. Every outcome except Cancelled produces exactly one
// notification.
func (g *Gateway) Run(ctx context.Context, cmd client.Command) Outcome {
	out := g.run(ctx, cmd)
	metrics.Commands.WithLabelValues(string(cmd), out.Kind.String()).Inc()

	fields := []zap.Field{
		zap.String("command", string(cmd)),
		zap.Stringer("outcome", out.Kind),
	}
	if out.RequestID != "" {
		fields = append(fields, zap.String("request_id", out.RequestID))
	}
	switch out.Kind {
	case Succeeded, Cancelled:
		g.logger.Info("command finished", fields...)
	default:
		g.logger.Warn("command finished", append(fields, zap.Error(out.Err))...)
	}
	return out
}

func (g *Gateway) run(ctx context.Context, cmd client.Command) Outcome {
	msgs, ok := commandMessages[cmd]
	if !ok {
		return Outcome{Kind: Failed, Command: cmd, Err: fmt.Errorf("unknown command %q", cmd)}
	}

	password, ok := g.prompter.PromptPassword(ctx, cmd)
	if !ok {
		return Outcome{Kind: Cancelled, Command: cmd}
	}

	verified, err := g.backend.VerifyPassword(ctx, password)
	if err != nil {
		return g.finish(Outcome{Kind: VerifyError, Command: cmd, Message: MsgVerificationFailed, Err: err})
	}
	if !verified {
		return g.finish(Outcome{Kind: VerifyFailed, Command: cmd, Message: MsgIncorrectPassword})
	}

	requestID := newRequestID()
	res, err := g.backend.Execute(ctx, cmd, requestID)
	if err != nil {
		if ae, ok := client.AsAPIError(err); ok {
			msg := ae.Message
			if msg == "" {
				msg = msgs.failure
			}
			return g.finish(Outcome{Kind: Failed, Command: cmd, Message: msg, RequestID: requestID, Err: err})
		}
		return g.finish(Outcome{Kind: ConnectionError, Command: cmd, Message: MsgConnectionError, RequestID: requestID, Err: err})
	}

	msg := res.Message
	if msg == "" {
		msg = msgs.success
	}
	out := g.finish(Outcome{Kind: Succeeded, Command: cmd, Message: msg, RequestID: requestID})
	if refreshesStatus[cmd] && g.refresher != nil {
		g.refresher.Refresh(scheduler.FeedStatus)
	}
	return out
}

func (g *Gateway) finish(out Outcome) Outcome {
	if out.Kind == Succeeded {
		g.notifier.Notify(render.Success(out.Message))
	} else {
		g.notifier.Notify(render.Error(out.Message))
	}
	return out
}

// newRequestID returns a short random base62 id used to correlate a command
// with backend logs.
func newRequestID() string {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base62.EncodeToString(b)
}
