package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genricoloni/rrp/internal/broadcast"
	"github.com/genricoloni/rrp/internal/config"
	"github.com/genricoloni/rrp/internal/opener"
	"github.com/genricoloni/rrp/internal/player"
	"github.com/genricoloni/rrp/internal/ui"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rrp:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := config.NewAppConfig(opts)
	if err != nil {
		return err
	}

	var (
		logger     *zap.Logger
		hub        *broadcast.Hub
		controller *player.Controller
		links      *opener.BrowserOpener
		clock      clockwork.Clock
	)

	app := fx.New(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions(cfg),
		fx.Populate(&logger, &hub, &controller, &links, &clock),
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	var runErr error
	if cfg.UI.Enabled {
		runErr = ui.Run(ctx, logger, hub, controller, links, clock, ui.Options{
			RPM:          cfg.UI.RPM,
			Color:        cfg.UI.Color,
			LoadingTitle: cfg.Metadata.LoadingTitle,
			AppName:      cfg.Notification.AppName,
			Links: ui.Links{
				Schedule: cfg.Links.Schedule,
				Chart:    cfg.Links.Chart,
				Main:     cfg.Links.Main,
			},
		})
	} else {
		logger.Info("Running headless", zap.String("config", cfg.Source()))
		<-ctx.Done()
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	return multierr.Append(runErr, app.Stop(stopCtx))
}

func parseFlags(args []string) (config.Options, error) {
	var opts config.Options

	fs := pflag.NewFlagSet("rrp", pflag.ContinueOnError)
	fs.StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file")
	fs.BoolVar(&opts.Headless, "headless", false, "run without the terminal display")
	fs.BoolVar(&opts.APIEnabled, "api", false, "serve the local control API")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// newLogger creates the zap logger. While the terminal display owns the
// screen, output goes to the configured log file.
func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	if cfg.UI.Enabled && cfg.Log.File != "" {
		zcfg.OutputPaths = []string{cfg.Log.File}
		zcfg.ErrorOutputPaths = []string{cfg.Log.File}
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
