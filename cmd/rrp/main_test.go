package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/genricoloni/rrp/internal/config"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

// testConfig loads defaults without picking up a real user config
func testConfig(t *testing.T, opts config.Options) *config.AppConfig {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.NewAppConfig(opts)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// TestAppGraphValidity verifies that the dependency graph is resolvable.
// This test will fail if you forget an fx.Provide for a required interface.
func TestAppGraphValidity(t *testing.T) {
	cfg := testConfig(t, config.Options{Headless: true})

	if err := fx.ValidateApp(AppOptions(cfg)); err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

// TestNewLogger specifically verifies the logger configuration
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		ui      bool
		wantErr bool
	}{
		{"headless info", "info", false, false},
		{"display writes to file", "debug", true, false},
		{"bad level", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.AppConfig{}
			cfg.Log.Level = tt.level
			cfg.Log.File = filepath.Join(t.TempDir(), "rrp.log")
			cfg.UI.Enabled = tt.ui

			logger, err := newLogger(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to create logger: %v", err)
			}
			if logger == nil {
				t.Fatal("Logger should not be nil")
			}
			logger.Info("Test logger initialization")
		})
	}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--headless", "--api", "--log-level", "debug", "-c", "/tmp/rrp.yaml"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !opts.Headless || !opts.APIEnabled {
		t.Errorf("Expected headless and api flags set, got %+v", opts)
	}
	if opts.LogLevel != "debug" || opts.ConfigFile != "/tmp/rrp.yaml" {
		t.Errorf("Unexpected options: %+v", opts)
	}

	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("Expected error for unknown flag, got nil")
	}
	if _, err := parseFlags([]string{"extra"}); err == nil {
		t.Error("Expected error for positional argument, got nil")
	}
	if _, err := parseFlags([]string{"--help"}); err != pflag.ErrHelp {
		t.Errorf("Expected ErrHelp, got %v", err)
	}
}

// TestEndToEndStartup starts and stops the headless graph against a local
// metadata endpoint, with notifications off and the API on an ephemeral port.
// We use fx.NopLogger to avoid cluttering test output
func TestEndToEndStartup(t *testing.T) {
	metadata := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"song":"Band - Track"}`))
	}))
	defer metadata.Close()

	cfg := testConfig(t, config.Options{Headless: true, APIEnabled: true})
	cfg.Metadata.URL = metadata.URL
	cfg.Notification.Enabled = false
	cfg.API.Addr = "127.0.0.1:0"

	app := fx.New(
		AppOptions(cfg),
		fx.NopLogger, // Silence Fx logs during tests
	)

	// Verify that the app can start without errors
	if err := app.Start(t.Context()); err != nil {
		t.Fatalf("App failed to start: %v", err)
	}

	// Verify that the app can stop without errors
	if err := app.Stop(t.Context()); err != nil {
		t.Fatalf("App failed to stop: %v", err)
	}
}
