// Package console reads operator commands from stdin.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"trading-dashboard-go/internal/client"
	"trading-dashboard-go/internal/gateway"
	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/scheduler"

	"go.uber.org/zap"
)

// ErrQuit is returned by Run when the operator typed quit.
var ErrQuit = errors.New("quit requested")

// ActionKind 是一行输入对应的操作
type ActionKind int

const (
	ActionCommand ActionKind = iota
	ActionTimeframe
	ActionRefresh
	ActionHelp
	ActionQuit
)

// Action is a parsed input line.
type Action struct {
	Kind      ActionKind
	Command   client.Command
	Timeframe models.Timeframe
}

const helpText = `commands:
  start | stop | close | delete | reset   privileged bot commands (password required)
  tf <1m|5m|15m>                          switch chart timeframe
  refresh                                 fetch status now
  help                                    show this help
  quit                                    exit the dashboard`

// ParseLine parses one input line. Blank lines return ok=false and no error.
func ParseLine(line string) (a Action, ok bool, err error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Action{}, false, nil
	}
	switch fields[0] {
	case "tf", "timeframe":
		if len(fields) != 2 {
			return Action{}, false, fmt.Errorf("usage: tf <1m|5m|15m>")
		}
		tf, err := models.ParseTimeframe(fields[1])
		if err != nil {
			return Action{}, false, err
		}
		return Action{Kind: ActionTimeframe, Timeframe: tf}, true, nil
	case "refresh":
		return Action{Kind: ActionRefresh}, true, nil
	case "help", "?":
		return Action{Kind: ActionHelp}, true, nil
	case "quit", "exit", "q":
		return Action{Kind: ActionQuit}, true, nil
	}
	if len(fields) != 1 {
		return Action{}, false, fmt.Errorf("unexpected arguments after %q", fields[0])
	}
	cmd, err := client.ParseCommand(fields[0])
	if err != nil {
		return Action{}, false, fmt.Errorf("unknown input %q, type help", line)
	}
	return Action{Kind: ActionCommand, Command: cmd}, true, nil
}

// CommandRunner runs a privileged command through the password gate.
type CommandRunner interface {
	Run(ctx context.Context, cmd client.Command) gateway.Outcome
}

// TimeframeSwitcher changes the chart timeframe.
type TimeframeSwitcher interface {
	SwitchTimeframe(tf models.Timeframe)
}

// Console 是 stdin 命令循环
type Console struct {
	in        io.Reader
	out       io.Writer
	commands  CommandRunner
	switcher  TimeframeSwitcher
	refresher gateway.Refresher
	logger    *zap.Logger
}

// New 创建命令循环
func New(in io.Reader, out io.Writer, commands CommandRunner, switcher TimeframeSwitcher, refresher gateway.Refresher, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{in: in, out: out, commands: commands, switcher: switcher, refresher: refresher, logger: logger}
}

// Run reads lines until ctx is cancelled or the operator quits. End of input
// stops reading but keeps the dashboard running. Lines are handled one at a
// time and the next line is not read until the current one is done, so a
// password prompt owns the terminal while it is shown.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	next := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.logger.Warn("stdin read failed", zap.Error(err))
		}
	}()

	fmt.Fprintln(c.out, "type help for commands")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				c.logger.Info("stdin closed, console input disabled")
				<-ctx.Done()
				return nil
			}
			if err := c.handle(ctx, line); err != nil {
				return err
			}
			select {
			case next <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, line string) error {
	a, ok, err := ParseLine(line)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return nil
	}
	if !ok {
		return nil
	}

	switch a.Kind {
	case ActionQuit:
		return ErrQuit
	case ActionHelp:
		fmt.Fprintln(c.out, helpText)
	case ActionRefresh:
		if c.refresher == nil || !c.refresher.Refresh(scheduler.FeedStatus) {
			fmt.Fprintln(c.out, "refresh not available right now")
		}
	case ActionTimeframe:
		if c.switcher != nil {
			c.switcher.SwitchTimeframe(a.Timeframe)
		}
	case ActionCommand:
		out := c.commands.Run(ctx, a.Command)
		if out.Kind == gateway.Cancelled {
			fmt.Fprintln(c.out, "cancelled")
		}
	}
	return nil
}
