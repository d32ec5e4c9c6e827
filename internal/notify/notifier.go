//go:build linux
// +build linux

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// Options configure the notification appearance
type Options struct {
	Enabled bool
	AppName string
	Icon    string
}

// DesktopNotifier shows one persistent notification through the
// freedesktop notification service on the session bus
type DesktopNotifier struct {
	logger          *zap.Logger
	opts            Options
	connect         func() (DBusClient, error) // Replaced in tests
	actions         chan domain.Command
	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	conn            DBusClient
	id              uint32         // Current notification id, 0 when none is shown
	wg              sync.WaitGroup // Tracks the signal goroutine
	closeOnce       sync.Once
	lastDropWarning time.Time
}

// NewDesktopNotifier creates a notifier; it connects on Start
func NewDesktopNotifier(logger *zap.Logger, opts Options) *DesktopNotifier {
	return &DesktopNotifier{
		logger:  logger,
		opts:    opts,
		actions: make(chan domain.Command, 4),
		connect: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
	}
}

// Start connects to the session bus and listens for notification actions.
// A missing bus or notification daemon is not fatal: the notifier then
// stays disabled and every call is a no-op.
func (n *DesktopNotifier) Start(ctx context.Context) error {
	if !n.opts.Enabled {
		n.logger.Info("Desktop notifications disabled by configuration")
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return nil
	}

	conn, err := n.connect()
	if err != nil {
		n.logger.Warn("Session bus unavailable, notifications disabled", zap.Error(err))
		return nil
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notificationsPath),
		dbus.WithMatchInterface(notificationsInterface),
	); err != nil {
		n.logger.Warn("Failed to subscribe to notification signals, notifications disabled", zap.Error(err))
		if err := conn.Close(); err != nil {
			n.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
		}
		return nil
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	// The listener outlives the start context; Stop cancels it
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	n.cancel = cancel
	n.conn = conn
	n.running = true

	n.wg.Add(1)
	go n.listen(listenCtx, signals)

	n.logger.Info("Desktop notifier started")
	return nil
}

// Stop ends the signal listener and closes the connection
func (n *DesktopNotifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	running := n.running
	if running {
		n.cancel()
		n.running = false
	}
	n.mu.Unlock()

	// Wait for the listener before closing the channel it sends on
	n.wg.Wait()
	n.closeOnce.Do(func() { close(n.actions) })

	if !running {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			n.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
		}
		n.conn = nil
	}

	n.logger.Info("Desktop notifier shutdown complete")
	return nil
}

// Show creates the notification or replaces the current one
func (n *DesktopNotifier) Show(ctx context.Context, notification domain.Notification) error {
	n.mu.Lock()
	conn, replaces := n.conn, n.id
	n.mu.Unlock()

	if conn == nil {
		return nil
	}

	actions := []string{string(notification.Action), notification.Action.Label()}
	hints := map[string]dbus.Variant{
		"resident": dbus.MakeVariant(true),
		"urgency":  dbus.MakeVariant(byte(0)),
	}

	id, err := conn.Notify(ctx, n.opts.AppName, replaces, n.opts.Icon,
		notification.Summary, notification.Body, actions, hints, 0)
	if err != nil {
		return fmt.Errorf("show notification: %w", err)
	}

	n.mu.Lock()
	n.id = id
	n.mu.Unlock()

	n.logger.Debug("Notification shown",
		zap.Uint32("id", id),
		zap.String("body", notification.Body),
		zap.String("action", string(notification.Action)))
	return nil
}

// Dismiss closes the current notification
func (n *DesktopNotifier) Dismiss(ctx context.Context) error {
	n.mu.Lock()
	conn, id := n.conn, n.id
	n.id = 0
	n.mu.Unlock()

	if conn == nil || id == 0 {
		return nil
	}

	if err := conn.CloseNotification(ctx, id); err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}

// Actions returns a read-only channel of commands invoked from the notification
func (n *DesktopNotifier) Actions() <-chan domain.Command {
	return n.actions
}

func (n *DesktopNotifier) listen(ctx context.Context, signals <-chan *dbus.Signal) {
	defer n.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				n.disconnected()
				return
			}
			if sig == nil {
				continue
			}
			n.handleSignal(sig)
		}
	}
}

// disconnected runs when godbus closes the signal channel because the bus
// connection ended. Show and Dismiss become no-ops from then on.
func (n *DesktopNotifier) disconnected() {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.id = 0
	n.mu.Unlock()

	n.logger.Warn("Session bus connection lost, notifications disabled")

	if conn != nil {
		if err := conn.Close(); err != nil {
			n.logger.Debug("Closing lost D-Bus connection", zap.Error(err))
		}
	}
}

// handleSignal processes ActionInvoked and NotificationClosed signals.
// Both carry the notification id first; signals for other ids are ignored.
func (n *DesktopNotifier) handleSignal(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	n.mu.Lock()
	current := n.id
	n.mu.Unlock()

	if current == 0 || id != current {
		return
	}

	switch sig.Name {
	case signalActionInvoked:
		key, ok := sig.Body[1].(string)
		if !ok {
			return
		}
		cmd, ok := domain.ParseCommand(key)
		if !ok {
			n.logger.Debug("Ignoring notification action", zap.String("key", key))
			return
		}

		select {
		case n.actions <- cmd:
			n.logger.Info("Notification action invoked", zap.String("command", string(cmd)))
		default:
			n.logDropWarning()
		}

	case signalNotificationClosed:
		n.mu.Lock()
		if n.id == id {
			n.id = 0
		}
		n.mu.Unlock()
		n.logger.Debug("Notification closed by server", zap.Uint32("id", id))
	}
}

// logDropWarning is rate limited to avoid log spam on repeated clicks
func (n *DesktopNotifier) logDropWarning() {
	n.mu.Lock()
	defer n.mu.Unlock()

	const warningInterval = 5 * time.Second
	now := time.Now()

	if now.Sub(n.lastDropWarning) >= warningInterval {
		n.logger.Warn("Actions channel full, dropping notification action")
		n.lastDropWarning = now
	}
}
