package notify

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"

	signalActionInvoked      = notificationsInterface + ".ActionInvoked"
	signalNotificationClosed = notificationsInterface + ".NotificationClosed"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/rrp/internal/notify DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// AddMatchSignal adds a signal match rule
	AddMatchSignal(options ...dbus.MatchOption) error

	// Signal registers a channel to receive D-Bus signals
	Signal(ch chan<- *dbus.Signal)

	// Notify creates a notification, or replaces the one with replacesID
	// when it is non-zero, and returns the notification id
	Notify(ctx context.Context, appName string, replacesID uint32, icon, summary, body string,
		actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error)

	// CloseNotification removes a notification
	CloseNotification(ctx context.Context, id uint32) error
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient creates a real D-Bus client connected to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// AddMatchSignal adds a signal match rule
func (c *StdDBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

// Signal registers a channel to receive D-Bus signals
func (c *StdDBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

// Notify calls org.freedesktop.Notifications.Notify
func (c *StdDBusClient) Notify(ctx context.Context, appName string, replacesID uint32, icon, summary, body string,
	actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	var id uint32
	obj := c.conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	err := obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		appName, replacesID, icon, summary, body, actions, hints, timeout).Store(&id)
	return id, err
}

// CloseNotification calls org.freedesktop.Notifications.CloseNotification
func (c *StdDBusClient) CloseNotification(ctx context.Context, id uint32) error {
	obj := c.conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	return obj.CallWithContext(ctx, notificationsInterface+".CloseNotification", 0, id).Err
}
