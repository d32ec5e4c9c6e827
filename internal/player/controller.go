package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrControllerStopped is returned for commands sent after Stop
var ErrControllerStopped = errors.New("playback controller stopped")

const shutdownTimeout = 3 * time.Second

// Options configure the stream and the notification content
type Options struct {
	StreamURL    string
	Buffer       domain.BufferConfig
	AppName      string
	InitialTitle string
}

type requestKind int

const (
	requestPlay requestKind = iota
	requestPause
	requestToggle
	requestTitle
	requestSnapshot
)

type request struct {
	ctx   context.Context
	kind  requestKind
	title string
	reply chan response
}

type response struct {
	snapshot domain.Snapshot
	err      error
}

// Controller owns the streaming session. All state lives on a single
// goroutine; callers talk to it through a command channel.
type Controller struct {
	logger     *zap.Logger
	notifier   domain.Notifier
	opts       Options
	newBackend backendFactory

	requests  chan request
	quit      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stopErr   error

	// Owned by the run goroutine
	state   domain.PlaybackState
	title   string
	backend playbackBackend
}

// NewController creates a stopped controller. The native player is created
// lazily on the first Play.
func NewController(logger *zap.Logger, notifier domain.Notifier, opts Options) *Controller {
	return &Controller{
		logger:     logger,
		notifier:   notifier,
		opts:       opts,
		newBackend: newPlaybackBackend,
		requests:   make(chan request),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		state:      domain.StateStopped,
		title:      opts.InitialTitle,
	}
}

// Start launches the command loop. It returns immediately.
func (c *Controller) Start(ctx context.Context) error {
	c.startOnce.Do(func() {
		c.started.Store(true)
		go c.run()
		c.logger.Info("Playback controller started", zap.String("stream", c.opts.StreamURL))
	})
	return nil
}

// Stop releases the native player, dismisses the notification and ends the loop
func (c *Controller) Stop(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.quit) })
	if !c.started.Load() {
		return nil
	}

	select {
	case <-c.done:
		return c.stopErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Play starts or resumes the stream
func (c *Controller) Play(ctx context.Context) (domain.Snapshot, error) {
	return c.send(ctx, request{kind: requestPlay})
}

// Pause pauses the stream
func (c *Controller) Pause(ctx context.Context) (domain.Snapshot, error) {
	return c.send(ctx, request{kind: requestPause})
}

// Toggle pauses while playing and plays otherwise
func (c *Controller) Toggle(ctx context.Context) (domain.Snapshot, error) {
	return c.send(ctx, request{kind: requestToggle})
}

// SetTitle records the current track title. The notification is refreshed
// only while the stream is playing.
func (c *Controller) SetTitle(ctx context.Context, title string) (domain.Snapshot, error) {
	return c.send(ctx, request{kind: requestTitle, title: title})
}

// Snapshot returns the current state and title
func (c *Controller) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return c.send(ctx, request{kind: requestSnapshot})
}

// Execute dispatches a play/pause command
func (c *Controller) Execute(ctx context.Context, cmd domain.Command) (domain.Snapshot, error) {
	switch cmd {
	case domain.CommandPlay:
		return c.Play(ctx)
	case domain.CommandPause:
		return c.Pause(ctx)
	default:
		return domain.Snapshot{}, fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *Controller) send(ctx context.Context, req request) (domain.Snapshot, error) {
	req.ctx = ctx
	req.reply = make(chan response, 1)

	select {
	case c.requests <- req:
	case <-c.quit:
		return domain.Snapshot{}, ErrControllerStopped
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case req := <-c.requests:
			req.reply <- c.handle(req)
		case <-c.quit:
			c.stopErr = c.shutdown()
			return
		}
	}
}

func (c *Controller) handle(req request) response {
	var err error

	switch req.kind {
	case requestPlay:
		err = c.play(req.ctx)
	case requestPause:
		c.pause(req.ctx)
	case requestToggle:
		if c.state == domain.StatePlaying {
			c.pause(req.ctx)
		} else {
			err = c.play(req.ctx)
		}
	case requestTitle:
		c.title = req.title
		if c.state == domain.StatePlaying {
			c.render(req.ctx)
		}
	case requestSnapshot:
	}

	return response{snapshot: c.snapshot(), err: err}
}

func (c *Controller) play(ctx context.Context) error {
	if c.backend == nil {
		backend, err := c.newBackend(c.logger, c.opts.Buffer)
		if err != nil {
			return fmt.Errorf("initialize player: %w", err)
		}
		if err := backend.Load(c.opts.StreamURL); err != nil {
			_ = backend.Close()
			return fmt.Errorf("initialize player: %w", err)
		}
		c.backend = backend
		c.logger.Info("Player initialized", zap.String("stream", c.opts.StreamURL))
	}

	if c.state != domain.StatePlaying {
		if err := c.backend.Play(); err != nil {
			return err
		}
		c.state = domain.StatePlaying
		c.logger.Info("Playback started")
	}

	c.render(ctx)
	return nil
}

func (c *Controller) pause(ctx context.Context) {
	if c.state == domain.StateStopped {
		c.logger.Debug("Pause ignored, player not started")
		return
	}

	if c.state == domain.StatePlaying {
		if err := c.backend.Pause(); err != nil {
			// The backend keeps its own state; report and leave ours unchanged
			c.logger.Error("Failed to pause playback", zap.Error(err))
			return
		}
		c.state = domain.StatePaused
		c.logger.Info("Playback paused")
	}

	c.render(ctx)
}

// render refreshes the notification; failures never fail the command
func (c *Controller) render(ctx context.Context) {
	n := domain.Notification{
		Summary: c.opts.AppName,
		Body:    c.title,
		Action:  domain.InverseAction(c.state),
	}
	if err := c.notifier.Show(ctx, n); err != nil {
		c.logger.Warn("Failed to update notification", zap.Error(err))
	}
}

func (c *Controller) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if c.backend != nil {
		err = multierr.Append(err, c.backend.Close())
		c.backend = nil
	}
	err = multierr.Append(err, c.notifier.Dismiss(ctx))
	c.state = domain.StateStopped

	c.logger.Info("Playback controller stopped")
	return err
}

func (c *Controller) snapshot() domain.Snapshot {
	return domain.Snapshot{State: c.state, Title: c.title}
}
