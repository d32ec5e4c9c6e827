//go:build !linux
// +build !linux

package notify

import (
	"context"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

// Options configure the notification appearance
type Options struct {
	Enabled bool
	AppName string
	Icon    string
}

// DesktopNotifier stub for non-Linux platforms
type DesktopNotifier struct {
	logger  *zap.Logger
	actions chan domain.Command
}

// NewDesktopNotifier creates a notifier that does nothing on non-Linux platforms
func NewDesktopNotifier(logger *zap.Logger, opts Options) *DesktopNotifier {
	ch := make(chan domain.Command)
	close(ch)
	return &DesktopNotifier{logger: logger, actions: ch}
}

// Start logs that notifications are unavailable
func (n *DesktopNotifier) Start(ctx context.Context) error {
	n.logger.Info("Desktop notifications are only supported on Linux systems")
	return nil
}

// Stop is a no-op on non-Linux platforms
func (n *DesktopNotifier) Stop(ctx context.Context) error { return nil }

// Show is a no-op on non-Linux platforms
func (n *DesktopNotifier) Show(ctx context.Context, notification domain.Notification) error {
	return nil
}

// Dismiss is a no-op on non-Linux platforms
func (n *DesktopNotifier) Dismiss(ctx context.Context) error { return nil }

// Actions returns a closed channel since no notification is shown
func (n *DesktopNotifier) Actions() <-chan domain.Command {
	return n.actions
}
