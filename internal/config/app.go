package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/synergy-app/synergy/internal/logging"
	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

// Environment variables read by ApplyEnv. The first three are the ones the
// Vue CLI tooling exports when it launches the shell during development.
const (
	EnvNodeEnv        = "NODE_ENV"
	EnvDevServerURL   = "WEBPACK_DEV_SERVER_URL"
	EnvTestMode       = "IS_TEST"
	EnvNativeBindings = "SYNERGY_NATIVE_BINDINGS"
)

// Run modes.
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// AppConfig is the complete desktop shell configuration.
type AppConfig struct {
	Mode    string         `yaml:"mode" json:"mode"`
	Window  WindowConfig   `yaml:"window" json:"window"`
	Popup   PopupConfig    `yaml:"popup" json:"popup"`
	Dev     DevConfig      `yaml:"dev" json:"dev"`
	Update  UpdateConfig   `yaml:"update" json:"update"`
	Logging logging.Config `yaml:"logging" json:"logging"`
	Metrics MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// WindowConfig sizes the main window.
type WindowConfig struct {
	Title  string `yaml:"title" json:"title"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// PopupConfig controls the update status popup.
type PopupConfig struct {
	Title   string   `yaml:"title" json:"title"`
	Width   int      `yaml:"width" json:"width"`
	Height  int      `yaml:"height" json:"height"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// DevConfig holds development-time switches.
type DevConfig struct {
	// ServerURL, when set, makes the main window load a live dev server
	// instead of the embedded bundle.
	ServerURL string `yaml:"server_url" json:"server_url"`

	// NativeBindings exposes the shell service to the frontend.
	NativeBindings bool `yaml:"native_bindings" json:"native_bindings"`

	// TestMode suppresses devtools so automated UI tests see a plain window.
	TestMode bool `yaml:"test_mode" json:"test_mode"`
}

// UpdateConfig configures the auto-update client.
type UpdateConfig struct {
	Enabled              bool     `yaml:"enabled" json:"enabled"`
	AutoDownload         bool     `yaml:"auto_download" json:"auto_download"`
	AutoInstallOnAppQuit bool     `yaml:"auto_install_on_app_quit" json:"auto_install_on_app_quit"`
	CheckInterval        Duration `yaml:"check_interval" json:"check_interval"`
	Channel              string   `yaml:"channel" json:"channel"` // stable, prerelease
	GitHubOwner          string   `yaml:"github_owner" json:"github_owner"`
	GitHubRepo           string   `yaml:"github_repo" json:"github_repo"`
	StateFile            string   `yaml:"state_file" json:"state_file"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen"` // empty disables the listener
}

// DefaultAppConfig returns the configuration used when no file is present.
// Released builds default to production mode, dev builds to development.
func DefaultAppConfig() AppConfig {
	mode := ModeProduction
	if version.IsDev() {
		mode = ModeDevelopment
	}

	upd := updater.DefaultConfig()

	return AppConfig{
		Mode: mode,
		Window: WindowConfig{
			Title:  version.ProductName,
			Width:  800,
			Height: 600,
		},
		Popup: PopupConfig{
			Title:   "AutoUpdater Status",
			Width:   400,
			Height:  150,
			Timeout: Duration(3 * time.Second),
		},
		Update: UpdateConfig{
			Enabled:              upd.Enabled,
			AutoDownload:         upd.AutoDownload,
			AutoInstallOnAppQuit: upd.AutoInstallOnAppQuit,
			CheckInterval:        Duration(upd.CheckInterval),
			Channel:              string(upd.Channel),
			GitHubOwner:          upd.GitHubOwner,
			GitHubRepo:           upd.GitHubRepo,
		},
		Logging: logging.DefaultConfig(),
	}
}

// ApplyEnv overrides file values with the process environment.
func (c *AppConfig) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvNodeEnv); ok && v != "" {
		if v == ModeProduction {
			c.Mode = ModeProduction
		} else {
			c.Mode = ModeDevelopment
		}
	}
	if v, ok := os.LookupEnv(EnvDevServerURL); ok {
		c.Dev.ServerURL = v
	}
	if v, ok := os.LookupEnv(EnvTestMode); ok {
		// Any non-empty value, "false" and "0" included, turns test mode on.
		c.Dev.TestMode = v != ""
	}
	if v, ok := os.LookupEnv(EnvNativeBindings); ok {
		c.Dev.NativeBindings = envFlag(v)
	}
}

// envFlag treats any non-empty value as set unless it parses as false.
func envFlag(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

// IsDevelopment reports whether the shell runs in development mode.
func (c *AppConfig) IsDevelopment() bool {
	return c.Mode != ModeProduction
}

// UsesDevServer reports whether the main window loads the dev server.
func (c *AppConfig) UsesDevServer() bool {
	return c.Dev.ServerURL != ""
}

// Validate checks the configuration.
func (c *AppConfig) Validate() error {
	if c.Mode != ModeProduction && c.Mode != ModeDevelopment {
		return fmt.Errorf("mode must be %q or %q, got: %q", ModeProduction, ModeDevelopment, c.Mode)
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window width and height must be positive")
	}

	if c.Popup.Width <= 0 || c.Popup.Height <= 0 {
		return fmt.Errorf("popup width and height must be positive")
	}
	if c.Popup.Timeout.Duration() <= 0 {
		return fmt.Errorf("popup timeout must be positive")
	}

	if c.Dev.ServerURL != "" {
		u, err := url.Parse(c.Dev.ServerURL)
		if err != nil {
			return fmt.Errorf("invalid dev server url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("dev server url must be an absolute http(s) URL, got: %s", c.Dev.ServerURL)
		}
	}

	if err := c.Update.Validate(); err != nil {
		return fmt.Errorf("invalid update config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	return nil
}

// Validate checks the update settings.
func (u *UpdateConfig) Validate() error {
	switch updater.Channel(u.Channel) {
	case updater.ChannelStable, updater.ChannelPrerelease:
	default:
		return fmt.Errorf("channel must be 'stable' or 'prerelease', got: %s", u.Channel)
	}

	interval := u.CheckInterval.Duration()
	if interval < 0 {
		return fmt.Errorf("check_interval must be non-negative")
	}
	if interval > 0 && interval < time.Minute {
		return fmt.Errorf("check_interval must be at least 1m, got: %s", interval)
	}

	if u.Enabled && (u.GitHubOwner == "" || u.GitHubRepo == "") {
		return fmt.Errorf("github_owner and github_repo are required when updates are enabled")
	}

	return nil
}

// UpdaterConfig converts the file settings into the update client's config.
func (u *UpdateConfig) UpdaterConfig() updater.Config {
	return updater.Config{
		Enabled:              u.Enabled,
		AutoDownload:         u.AutoDownload,
		AutoInstallOnAppQuit: u.AutoInstallOnAppQuit,
		CheckInterval:        u.CheckInterval.Duration(),
		Channel:              updater.Channel(u.Channel),
		GitHubOwner:          u.GitHubOwner,
		GitHubRepo:           u.GitHubRepo,
		StateFile:            u.StateFile,
	}
}
