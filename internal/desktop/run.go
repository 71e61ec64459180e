// Package desktop runs the Synergy shell inside a Wails application.
package desktop

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/synergy-app/synergy/internal/assets"
	"github.com/synergy-app/synergy/internal/config"
	"github.com/synergy-app/synergy/internal/metrics"
	"github.com/synergy-app/synergy/internal/shell"
	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

const shutdownTimeout = 30 * time.Second

// Options configures Run.
type Options struct {
	Config config.AppConfig

	// Assets is the built front-end, rooted at index.html.
	Assets fs.FS

	// Updater is nil when updates are disabled.
	Updater *updater.Updater

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// Run starts the desktop shell and blocks until the application quits.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	handler, err := assets.New(assets.Options{
		FS:           opts.Assets,
		DevServerURL: cfg.Dev.ServerURL,
		Logger:       logger.With("component", "assets"),
	})
	if err != nil {
		return fmt.Errorf("create asset handler: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates shell.UpdateClient
	var checker UpdateChecker
	if opts.Updater != nil {
		updates = opts.Updater
		checker = opts.Updater
	}

	var services []application.Service
	if cfg.Dev.NativeBindings {
		services = append(services, application.NewService(NewBindings(checker, logger.With("component", "bindings"))))
	}

	var app *shell.App
	var tk *Toolkit

	wailsApp := application.New(application.Options{
		Name:        version.ProductName,
		Description: "Synergy desktop",
		Services:    services,
		Assets: application.AssetOptions{
			Handler: handler,
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
		Windows: application.WindowsOptions{
			DisableQuitOnLastWindowClosed: true,
		},
		Linux: application.LinuxOptions{
			DisableQuitOnLastWindowClosed: true,
			ProgramName:                   "synergy",
		},
		SingleInstance: &application.SingleInstanceOptions{
			UniqueID: version.AppID,
			OnSecondInstanceLaunch: func(data application.SecondInstanceData) {
				logger.Info("Second instance launched", "args", data.Args)
				if !tk.Focus(shell.MainWindowName) {
					app.OnActivate(appCtx)
				}
			},
		},
		OnShutdown: func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			app.OnShutdown(shutdownCtx)
			cancel()
		},
	})

	tk = NewToolkit(wailsApp, nil, logger.With("component", "toolkit"))

	var collector *metrics.Collector
	if opts.Metrics != nil {
		collector = metrics.NewCollector(opts.Metrics, tk.WindowCount)
	}

	app = shell.New(shell.Options{
		Config:  cfg,
		Toolkit: tk,
		Updates: updates,
		Metrics: collector,
		Logger:  logger,
	})
	tk.SetOnAllClosed(app.OnWindowAllClosed)

	if opts.Updater != nil {
		opts.Updater.SetListener(app.Relay())
		opts.Updater.SetQuitFunc(tk.Quit)
	}

	wailsApp.Event.OnApplicationEvent(events.Common.ApplicationStarted, func(*application.ApplicationEvent) {
		if opts.Updater != nil {
			opts.Updater.Cleanup()
		}
		app.OnReady(appCtx)
	})
	wailsApp.Event.OnApplicationEvent(events.Mac.ApplicationShouldHandleReopen, func(*application.ApplicationEvent) {
		app.OnActivate(appCtx)
	})

	collector.Start()
	defer collector.Stop()

	stop := app.WatchGracefulExit(appCtx)
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			wailsApp.Quit()
		case <-done:
		}
	}()

	logger.Info("Starting desktop shell",
		"version", version.Short(),
		"mode", cfg.Mode,
		"dev_server", cfg.Dev.ServerURL,
		"native_bindings", cfg.Dev.NativeBindings,
	)

	if err := wailsApp.Run(); err != nil {
		return fmt.Errorf("run desktop shell: %w", err)
	}

	// The single-instance lock is released once Run returns.
	if opts.Updater != nil {
		if err := opts.Updater.RelaunchIfInstalled(); err != nil {
			logger.Error("Failed to restart after update", "error", err)
		}
	}
	return nil
}
