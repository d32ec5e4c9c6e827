package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrStopped is returned when Start is called on a poller that already ran
var ErrStopped = errors.New("poller already stopped")

// State is the lifecycle of a poller
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// Options tune the polling cadence
type Options struct {
	// SuccessInterval is the wait after a successful fetch
	SuccessInterval time.Duration
	// FailureInterval is the wait after any failed fetch
	FailureInterval time.Duration
	// LoadingTitle is reported by Title until the first successful poll
	LoadingTitle string
}

// Poller periodically reads the now-playing title and publishes it.
// It runs regardless of playback state.
type Poller struct {
	logger    *zap.Logger
	source    domain.StatusSource
	publisher domain.Publisher
	clock     clockwork.Clock
	opts      Options

	mu     sync.RWMutex
	state  State
	title  string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates an idle poller
func NewPoller(logger *zap.Logger, source domain.StatusSource, publisher domain.Publisher, clock clockwork.Clock, opts Options) *Poller {
	return &Poller{
		logger:    logger,
		source:    source,
		publisher: publisher,
		clock:     clock,
		opts:      opts,
		title:     opts.LoadingTitle,
	}
}

// Start launches the polling loop. It returns immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateRunning:
		return nil
	case StateStopped:
		return ErrStopped
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateRunning

	p.wg.Add(1)
	go p.run(loopCtx)

	p.logger.Info("Track poller started",
		zap.Duration("successInterval", p.opts.SuccessInterval),
		zap.Duration("failureInterval", p.opts.FailureInterval))
	return nil
}

// Stop cancels the loop, interrupting any pending wait, and waits for it to exit
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateRunning {
		p.state = StateStopped
		p.mu.Unlock()
		return nil
	}
	p.state = StateStopped
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Track poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the lifecycle state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Title returns the latest title, or the loading placeholder before the first poll
func (p *Poller) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.title
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		wait := p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(wait):
		}
	}
}

// poll performs one fetch and returns how long to wait before the next one
func (p *Poller) poll(ctx context.Context) time.Duration {
	title, fallback, err := p.source.FetchTitle(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("Failed to fetch track info, retrying",
				zap.Error(err),
				zap.Duration("retryIn", p.opts.FailureInterval))
		}
		return NextDelay(err, p.opts)
	}

	p.mu.Lock()
	p.title = title
	p.mu.Unlock()

	p.publisher.Publish(domain.NowPlaying{
		Title:     title,
		Fallback:  fallback,
		FetchedAt: p.clock.Now(),
	})

	p.logger.Debug("Track updated", zap.String("title", title), zap.Bool("fallback", fallback))
	return NextDelay(nil, p.opts)
}

// NextDelay is the fixed backoff: failures retry sooner than successes repeat
func NextDelay(err error, opts Options) time.Duration {
	if err != nil {
		return opts.FailureInterval
	}
	return opts.SuccessInterval
}
