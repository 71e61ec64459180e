package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/synergy-app/synergy/internal/config"
	"github.com/synergy-app/synergy/internal/logging"
	"github.com/synergy-app/synergy/internal/metrics"
	"github.com/synergy-app/synergy/internal/shell"
	"github.com/synergy-app/synergy/internal/tray"
	"github.com/synergy-app/synergy/internal/updater"
)

func newTrayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the update agent in the system tray",
		Long: `Run the update client without a window. Update status is shown in the
tray menu, and "Open Synergy" starts the desktop app.`,
		RunE: runTray,
	}
}

func runTray(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.Logging); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logging.Close()

	m, stopMetrics, err := startMetrics(cfg)
	if err != nil {
		return err
	}
	defer stopMetrics()

	u, err := newUpdater(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logging.WithComponent("tray")
	trayCfg := tray.Config{
		OnRelease: func(url string) {
			if err := openBrowser(url); err != nil {
				logger.Error("Failed to open release notes", "error", err)
			}
		},
		OnOpen: func() {
			if err := openDesktop(cfg); err != nil {
				logger.Error("Failed to open desktop app", "error", err)
			}
		},
	}
	check := func() {
		if err := u.CheckForUpdatesAndNotify(ctx); err != nil && !errors.Is(err, updater.ErrCheckInProgress) {
			logger.Debug("Update check finished with error", "error", err)
		}
	}
	if u != nil {
		trayCfg.OnCheck = func() { go check() }
	}
	t := tray.New(trayCfg)

	if u == nil {
		t.Present("Updates are disabled")
		logger.Info("Tray agent started", "updates", false)
		t.Run(ctx)
		return nil
	}

	var collector *metrics.Collector
	if m != nil {
		collector = metrics.NewCollector(m, nil)
		collector.Start()
		defer collector.Stop()
	}

	u.Cleanup()
	relay := shell.NewRelay(t, u, collector, logging.WithComponent("updater"))
	u.SetListener(t.Listener(relay))
	u.SetQuitFunc(t.Quit)

	go check()
	u.StartBackgroundChecker(ctx)

	logger.Info("Tray agent started", "channel", cfg.Update.Channel)
	t.Run(ctx)

	u.StopBackgroundChecker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := u.InstallOnQuit(shutdownCtx); err != nil {
		logger.Error("Failed to install update on quit", "error", err)
	}
	if err := u.RelaunchIfInstalled(); err != nil {
		logger.Error("Failed to relaunch after update", "error", err)
	}
	return nil
}

// openDesktop starts the desktop shell as a separate process using the same
// config file when one exists.
func openDesktop(cfg config.AppConfig) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}

	var args []string
	if _, err := os.Stat(configFile); err == nil {
		args = append(args, "--config", configFile)
	}

	c := exec.Command(exe, args...)
	c.Env = os.Environ()
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", exe, err)
	}
	logging.Info("Desktop app started", "pid", c.Process.Pid, "mode", cfg.Mode)
	return c.Process.Release()
}
