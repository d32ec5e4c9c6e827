package domain

import "context"

// StatusSource retrieves the now-playing document from the metadata endpoint
type StatusSource interface {
	// FetchTitle returns the track title, or the fallback title when the
	// document carries no usable song field. fallback reports which one it was.
	// A transport or decode failure is returned as an error.
	FetchTitle(ctx context.Context) (title string, fallback bool, err error)
}

// Publisher fans NowPlaying values out to subscribers
type Publisher interface {
	Publish(np NowPlaying)
}

// Notifier renders the persistent playback notification
// Implementations should handle the desktop notification service
type Notifier interface {
	// Start connects to the notification service
	Start(ctx context.Context) error

	// Stop dismisses the notification and releases the connection
	Stop(ctx context.Context) error

	// Show creates or replaces the notification
	Show(ctx context.Context, n Notification) error

	// Dismiss removes the notification if it is shown
	Dismiss(ctx context.Context) error

	// Actions returns a read-only channel of commands invoked from the notification
	Actions() <-chan Command
}

// PlaybackControl is the command surface of the playback controller
type PlaybackControl interface {
	Play(ctx context.Context) (Snapshot, error)
	Pause(ctx context.Context) (Snapshot, error)
	Toggle(ctx context.Context) (Snapshot, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

// LinkOpener opens a URL in an external browser
type LinkOpener interface {
	Open(url string) error
}
