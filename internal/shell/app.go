// Package shell implements the Synergy desktop application logic: main
// window creation, the platform lifecycle conventions, and rendering of
// update client events as status popups. It drives an abstract Toolkit so
// the behavior is independent of the windowing library.
package shell

import (
	"context"
	"errors"
	"log/slog"

	"github.com/synergy-app/synergy/internal/config"
	"github.com/synergy-app/synergy/internal/metrics"
	"github.com/synergy-app/synergy/internal/updater"
)

const (
	// MainWindowName names the primary window.
	MainWindowName = "main"

	// PackagedURL is the entry page of the embedded front-end bundle.
	PackagedURL = "/index.html"
)

// Options configures an App.
type Options struct {
	Config  config.AppConfig
	Toolkit Toolkit

	// Updates is nil when the update client is unavailable.
	Updates UpdateClient

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// App is the application context passed to every lifecycle handler.
type App struct {
	cfg     config.AppConfig
	toolkit Toolkit
	updates UpdateClient
	metrics *metrics.Collector
	logger  *slog.Logger

	popups *PopupFactory
	relay  *Relay

	// shutdown is cancelled by OnShutdown and ends every update check.
	shutdown   context.Context
	stopChecks context.CancelFunc
}

// New creates an App. The returned App's Relay should be registered as the
// update client's listener.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:     opts.Config,
		toolkit: opts.Toolkit,
		updates: opts.Updates,
		metrics: opts.Metrics,
		logger:  logger,
	}
	a.shutdown, a.stopChecks = context.WithCancel(context.Background())

	a.popups = NewPopupFactory(opts.Toolkit, PopupOptions{
		Title:   opts.Config.Popup.Title,
		Width:   opts.Config.Popup.Width,
		Height:  opts.Config.Popup.Height,
		Timeout: opts.Config.Popup.Timeout.Duration(),
	}, opts.Metrics, logger.With("component", "popup"))

	var installer Installer
	if opts.Updates != nil {
		installer = opts.Updates
	}
	a.relay = NewRelay(a.popups, installer, opts.Metrics, logger.With("component", "updater"))

	return a
}

// Relay returns the update event relay.
func (a *App) Relay() *Relay {
	return a.relay
}

// OnReady handles the toolkit's ready signal: in development it installs the
// UI inspector (failures are logged), then it creates the main window.
func (a *App) OnReady(ctx context.Context) {
	if a.cfg.IsDevelopment() && !a.cfg.Dev.TestMode {
		if err := a.toolkit.InstallDevTools(ctx); err != nil {
			a.logger.Error("Devtools failed to install", "error", err)
		}
	}

	if _, err := a.CreateMainWindow(ctx); err != nil {
		a.logger.Error("Failed to create main window", "error", err)
	}
}

// CreateMainWindow opens the main window on the dev server when one is
// configured, otherwise on the packaged bundle. The packaged path also
// starts an update check.
func (a *App) CreateMainWindow(ctx context.Context) (Window, error) {
	opts := WindowOptions{
		Name:      MainWindowName,
		Title:     a.cfg.Window.Title,
		Width:     a.cfg.Window.Width,
		Height:    a.cfg.Window.Height,
		Resizable: true,
		DevTools:  a.cfg.IsDevelopment(),
	}

	if a.cfg.UsesDevServer() {
		opts.URL = a.cfg.Dev.ServerURL
	} else {
		opts.URL = PackagedURL
	}

	w, err := a.toolkit.NewWindow(opts)
	if err != nil {
		return nil, err
	}
	a.metrics.RecordMainWindow()
	a.logger.Info("Main window created", "url", opts.URL)

	if a.cfg.UsesDevServer() {
		if !a.cfg.Dev.TestMode {
			w.OpenDevTools()
		}
	} else {
		a.checkForUpdates(ctx)
	}

	return w, nil
}

func (a *App) checkForUpdates(ctx context.Context) {
	if a.updates == nil || !a.cfg.Update.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	context.AfterFunc(a.shutdown, cancel)

	go func() {
		err := a.updates.CheckForUpdatesAndNotify(ctx)
		if err != nil && !errors.Is(err, updater.ErrCheckInProgress) {
			a.logger.Debug("Update check finished with error", "error", err)
		}
	}()

	a.updates.StartBackgroundChecker(ctx)
}

// OnWindowAllClosed quits unless running on macOS, where applications stay
// active until the user quits explicitly.
func (a *App) OnWindowAllClosed() {
	if a.toolkit.Platform() == "darwin" {
		return
	}
	a.toolkit.Quit()
}

// OnActivate re-creates the main window when the app is activated with no
// windows open, e.g. by clicking the dock icon.
func (a *App) OnActivate(ctx context.Context) {
	if a.toolkit.WindowCount() != 0 {
		return
	}
	if _, err := a.CreateMainWindow(ctx); err != nil {
		a.logger.Error("Failed to create main window", "error", err)
	}
}

// OnShutdown cancels running update checks without waiting for them and
// installs a staged update when the configuration asks for install on quit.
func (a *App) OnShutdown(ctx context.Context) {
	a.stopChecks()
	if a.updates == nil {
		return
	}

	a.updates.StopBackgroundChecker()

	if err := a.updates.InstallOnQuit(ctx); err != nil {
		a.logger.Error("Failed to install update on quit", "error", err)
	}
}

// WatchGracefulExit quits the toolkit when the parent process asks a
// development build to exit. It does nothing in production. The returned
// function stops watching.
func (a *App) WatchGracefulExit(ctx context.Context) (stop func()) {
	if !a.cfg.IsDevelopment() {
		return func() {}
	}
	return watchGracefulExit(ctx, a.toolkit.Quit)
}
