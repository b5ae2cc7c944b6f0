package console

import (
	"context"
	"errors"
	"fmt"

	"trading-dashboard-go/internal/client"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"
)

// Holder pauses other terminal output while a prompt is shown. The returned
// func resumes it.
type Holder interface {
	Hold() (release func())
}

// HuhPrompter asks for the dashboard password with a masked huh input.
type HuhPrompter struct {
	holder Holder
	logger *zap.Logger
}

// NewHuhPrompter 创建密码输入器。holder 可以为 nil。
func NewHuhPrompter(holder Holder, logger *zap.Logger) *HuhPrompter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HuhPrompter{holder: holder, logger: logger}
}

// PromptPassword treats Ctrl-C, Esc and an empty answer as cancel.
func (p *HuhPrompter) PromptPassword(ctx context.Context, cmd client.Command) (string, bool) {
	if p.holder != nil {
		release := p.holder.Hold()
		defer release()
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter dashboard password").
				Description(fmt.Sprintf("required for %q", cmd)).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if !errors.Is(err, huh.ErrUserAborted) && ctx.Err() == nil {
			p.logger.Warn("password prompt failed", zap.Error(err))
		}
		return "", false
	}
	if password == "" {
		return "", false
	}
	return password, true
}
