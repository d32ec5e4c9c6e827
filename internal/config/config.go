package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"github.com/spf13/viper"
)

const (
	envPrefix = "RRP"

	defaultStreamURL    = "https://myradio24.org/radiorever"
	defaultMetadataURL  = "https://myradio24.com/users/radiorever/status.json"
	defaultLoadingTitle = "Loading..."
	defaultFallback     = "Post-punk on air..."
	defaultAppName      = "RRP Radio Player"
)

// Options are the command-line inputs that shape configuration loading
type Options struct {
	ConfigFile string
	Headless   bool
	APIEnabled bool
	LogLevel   string
}

// AppConfig holds application configuration
type AppConfig struct {
	Stream struct {
		URL    string `mapstructure:"url"`
		Buffer struct {
			TargetMs   int `mapstructure:"target_ms"`
			MaxMs      int `mapstructure:"max_ms"`
			PlaybackMs int `mapstructure:"playback_ms"`
			RebufferMs int `mapstructure:"rebuffer_ms"`
		} `mapstructure:"buffer"`
	} `mapstructure:"stream"`
	Metadata struct {
		URL             string        `mapstructure:"url"`
		SuccessInterval time.Duration `mapstructure:"success_interval"`
		FailureInterval time.Duration `mapstructure:"failure_interval"`
		Timeout         time.Duration `mapstructure:"timeout"`
		LoadingTitle    string        `mapstructure:"loading_title"`
		FallbackTitle   string        `mapstructure:"fallback_title"`
	} `mapstructure:"metadata"`
	Notification struct {
		Enabled bool   `mapstructure:"enabled"`
		AppName string `mapstructure:"app_name"`
		Icon    string `mapstructure:"icon"`
	} `mapstructure:"notification"`
	UI struct {
		Enabled bool    `mapstructure:"enabled"`
		RPM     float64 `mapstructure:"rpm"`
		Color   string  `mapstructure:"color"`
	} `mapstructure:"ui"`
	Links struct {
		Schedule string `mapstructure:"schedule"`
		Chart    string `mapstructure:"chart"`
		Main     string `mapstructure:"main"`
	} `mapstructure:"links"`
	API struct {
		Enabled     bool     `mapstructure:"enabled"`
		Addr        string   `mapstructure:"addr"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"api"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	// source is the config file actually read, empty when running on defaults
	source string
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("stream.url", defaultStreamURL)
	v.SetDefault("stream.buffer.target_ms", 5000)
	v.SetDefault("stream.buffer.max_ms", 30000)
	v.SetDefault("stream.buffer.playback_ms", 2500)
	v.SetDefault("stream.buffer.rebuffer_ms", 5000)

	v.SetDefault("metadata.url", defaultMetadataURL)
	v.SetDefault("metadata.success_interval", 10*time.Second)
	v.SetDefault("metadata.failure_interval", 5*time.Second)
	v.SetDefault("metadata.timeout", 10*time.Second)
	v.SetDefault("metadata.loading_title", defaultLoadingTitle)
	v.SetDefault("metadata.fallback_title", defaultFallback)

	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.app_name", defaultAppName)
	v.SetDefault("notification.icon", "media-playback-start")

	v.SetDefault("ui.enabled", true)
	v.SetDefault("ui.rpm", 16.0)
	v.SetDefault("ui.color", "#c0392b")

	v.SetDefault("links.schedule", "https://radiorever.com/schedule")
	v.SetDefault("links.chart", "https://radiorever.com/chart")
	v.SetDefault("links.main", "https://radiorever.com")

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.addr", "127.0.0.1:8788")
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(os.TempDir(), "rrp.log"))
}

// NewAppConfig reads defaults, the optional config file, RRP_* environment
// variables and finally the command-line options, in increasing precedence.
func NewAppConfig(opts Options) (*AppConfig, error) {
	return load(viper.New(), opts)
}

func load(v *viper.Viper, opts Options) (*AppConfig, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := configHome(); dir != "" {
			v.AddConfigPath(filepath.Join(dir, "rrp"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the XDG lookup is optional
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Headless {
		v.Set("ui.enabled", false)
	}
	if opts.APIEnabled {
		v.Set("api.enabled", true)
	}
	if opts.LogLevel != "" {
		v.Set("log.level", opts.LogLevel)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the poller and player cannot work with
func (c *AppConfig) Validate() error {
	switch {
	case c.Stream.URL == "":
		return errors.New("stream.url must not be empty")
	case c.Metadata.URL == "":
		return errors.New("metadata.url must not be empty")
	case c.Metadata.SuccessInterval <= 0 || c.Metadata.FailureInterval <= 0:
		return errors.New("metadata intervals must be positive")
	case c.UI.RPM <= 0:
		return errors.New("ui.rpm must be positive")
	}
	return nil
}

// Source returns the path of the config file that was read, if any
func (c *AppConfig) Source() string {
	return c.source
}

// Buffer converts the millisecond settings to the player buffer targets
func (c *AppConfig) Buffer() domain.BufferConfig {
	b := c.Stream.Buffer
	return domain.BufferConfig{
		Target:           time.Duration(b.TargetMs) * time.Millisecond,
		Max:              time.Duration(b.MaxMs) * time.Millisecond,
		MinForPlayback:   time.Duration(b.PlaybackMs) * time.Millisecond,
		MinAfterRebuffer: time.Duration(b.RebufferMs) * time.Millisecond,
	}
}

// configHome follows XDG_CONFIG_HOME with a ~/.config fallback
func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}
