package main

import (
	"context"

	"github.com/genricoloni/rrp/internal/api"
	"github.com/genricoloni/rrp/internal/broadcast"
	"github.com/genricoloni/rrp/internal/config"
	"github.com/genricoloni/rrp/internal/domain"
	"github.com/genricoloni/rrp/internal/engine"
	"github.com/genricoloni/rrp/internal/fetcher"
	"github.com/genricoloni/rrp/internal/notify"
	"github.com/genricoloni/rrp/internal/opener"
	"github.com/genricoloni/rrp/internal/player"
	"github.com/genricoloni/rrp/internal/poller"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// AppOptions is the dependency graph of the player
func AppOptions(cfg *config.AppConfig) fx.Option {
	return fx.Options(
		fx.Supply(cfg),

		// Provide dependencies
		fx.Provide(
			newLogger,
			broadcast.NewHub,
			newClock,
			newStatusFetcher,
			newNotifier,
			newController,
			newPoller,
			newEngine,
			opener.NewBrowserOpener,
			newAPIServer,
		),

		// Lifecycle hooks
		fx.Invoke(registerHooks),
	)
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func newStatusFetcher(logger *zap.Logger, cfg *config.AppConfig) *fetcher.StatusFetcher {
	return fetcher.NewStatusFetcher(logger, cfg.Metadata.URL, cfg.Metadata.FallbackTitle, cfg.Metadata.Timeout)
}

func newNotifier(logger *zap.Logger, cfg *config.AppConfig) domain.Notifier {
	return notify.NewDesktopNotifier(logger, notify.Options{
		Enabled: cfg.Notification.Enabled,
		AppName: cfg.Notification.AppName,
		Icon:    cfg.Notification.Icon,
	})
}

func newController(logger *zap.Logger, notifier domain.Notifier, cfg *config.AppConfig) *player.Controller {
	return player.NewController(logger, notifier, player.Options{
		StreamURL:    cfg.Stream.URL,
		Buffer:       cfg.Buffer(),
		AppName:      cfg.Notification.AppName,
		InitialTitle: cfg.Metadata.LoadingTitle,
	})
}

func newPoller(logger *zap.Logger, source *fetcher.StatusFetcher, hub *broadcast.Hub, clock clockwork.Clock, cfg *config.AppConfig) *poller.Poller {
	return poller.NewPoller(logger, source, hub, clock, poller.Options{
		SuccessInterval: cfg.Metadata.SuccessInterval,
		FailureInterval: cfg.Metadata.FailureInterval,
		LoadingTitle:    cfg.Metadata.LoadingTitle,
	})
}

func newEngine(logger *zap.Logger, hub *broadcast.Hub, ctrl *player.Controller, poll *poller.Poller, notifier domain.Notifier) *engine.Engine {
	return engine.NewEngine(logger, hub, ctrl, poll, notifier)
}

func newAPIServer(logger *zap.Logger, ctrl *player.Controller, hub *broadcast.Hub, cfg *config.AppConfig) *api.Server {
	return api.NewServer(logger, ctrl, hub, api.Options{
		Addr:        cfg.API.Addr,
		CORSOrigins: cfg.API.CORSOrigins,
	})
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, cfg *config.AppConfig, eng *engine.Engine, server *api.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("RRP player started",
				zap.String("stream", cfg.Stream.URL),
				zap.String("metadata", cfg.Metadata.URL),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			// Sync fails on terminals; nothing to do about it
			_ = logger.Sync()
			return nil
		},
	})

	lc.Append(fx.Hook{
		OnStart: eng.Start,
		OnStop:  eng.Stop,
	})

	if cfg.API.Enabled {
		lc.Append(fx.Hook{
			OnStart: server.Start,
			OnStop:  server.Stop,
		})
	}
}
