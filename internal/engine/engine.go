package engine

import (
	"context"
	"sync"

	"github.com/genricoloni/rrp/internal/broadcast"
	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Controller is the part of the playback controller the engine drives
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SetTitle(ctx context.Context, title string) (domain.Snapshot, error)
	Execute(ctx context.Context, cmd domain.Command) (domain.Snapshot, error)
}

// Poller is the lifecycle of the metadata poller
type Poller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Engine orchestrates the player daemon.
// It relays polled titles into the controller and notification actions into commands.
type Engine struct {
	logger     *zap.Logger
	hub        *broadcast.Hub
	controller Controller
	poller     Poller
	notifier   domain.Notifier

	cancel context.CancelFunc
	sub    *broadcast.Subscription
	wg     sync.WaitGroup
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	hub *broadcast.Hub,
	ctrl Controller,
	poll Poller,
	notifier domain.Notifier,
) *Engine {
	return &Engine{
		logger:     logger,
		hub:        hub,
		controller: ctrl,
		poller:     poll,
		notifier:   notifier,
	}
}

// Start brings up the notifier, the controller and the poller, then launches
// the relay goroutines. It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	// Background work must outlive the start context
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel

	if err := e.notifier.Start(ctx); err != nil {
		cancel()
		return err
	}
	if err := e.controller.Start(ctx); err != nil {
		cancel()
		return multierr.Append(err, e.notifier.Stop(ctx))
	}

	e.sub = e.hub.Subscribe("engine")

	e.wg.Add(2)
	go e.relayTitles(runCtx, e.sub)
	go e.relayActions(runCtx, e.notifier.Actions())

	if err := e.poller.Start(runCtx); err != nil {
		// fx skips OnStop for a failed OnStart, so unwind here
		cancel()
		e.sub.Unsubscribe()
		e.wg.Wait()
		err = multierr.Append(err, e.controller.Stop(ctx))
		return multierr.Append(err, e.notifier.Stop(ctx))
	}

	return nil
}

// relayTitles forwards every published title to the controller so the
// notification follows the stream
func (e *Engine) relayTitles(ctx context.Context, sub *broadcast.Subscription) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case np, ok := <-sub.C():
			if !ok {
				return
			}
			if _, err := e.controller.SetTitle(ctx, np.Title); err != nil && ctx.Err() == nil {
				e.logger.Warn("Failed to forward title", zap.Error(err))
			}
		}
	}
}

// relayActions turns notification button presses into controller commands
func (e *Engine) relayActions(ctx context.Context, actions <-chan domain.Command) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-actions:
			if !ok {
				return
			}
			snap, err := e.controller.Execute(ctx, cmd)
			if err != nil {
				e.logger.Error("Notification command failed", zap.String("command", string(cmd)), zap.Error(err))
				continue
			}
			e.logger.Info("Notification command applied",
				zap.String("command", string(cmd)),
				zap.String("state", snap.State.String()))
		}
	}
}

// Stop shuts everything down in reverse order
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	var err error
	err = multierr.Append(err, e.poller.Stop(ctx))

	if e.cancel != nil {
		e.cancel()
	}
	if e.sub != nil {
		e.sub.Unsubscribe()
	}
	e.wg.Wait()

	err = multierr.Append(err, e.controller.Stop(ctx))
	err = multierr.Append(err, e.notifier.Stop(ctx))

	if err != nil {
		e.logger.Error("Engine stopped with errors", zap.Error(err))
		return err
	}
	e.logger.Info("Engine stopped")
	return nil
}
