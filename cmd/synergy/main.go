// Package main provides the Synergy desktop entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/synergy-app/synergy/frontend"
	"github.com/synergy-app/synergy/internal/config"
	"github.com/synergy-app/synergy/internal/desktop"
	"github.com/synergy-app/synergy/internal/logging"
	"github.com/synergy-app/synergy/internal/metrics"
	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

const defaultConfigFile = "synergy.yaml"

var configFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "synergy",
		Short:         "Synergy desktop",
		Long:          `Synergy opens the desktop app and keeps it up to date from GitHub releases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultAppConfig()
			if err := config.LoadAndValidate(configFile, &cfg); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	})

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newTrayCommand())

	return rootCmd
}

// loadConfig reads the config file, applies environment overrides and
// validates the result. A missing file is only an error when --config was
// given explicitly.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	cfg := config.DefaultAppConfig()

	err := config.Load(configFile, &cfg)
	if err != nil {
		flag := cmd.Flag("config")
		explicit := flag != nil && flag.Changed
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// startMetrics starts the Prometheus listener when one is configured. The
// returned function shuts it down.
func startMetrics(cfg config.AppConfig) (*metrics.Metrics, func(), error) {
	if cfg.Metrics.Listen == "" {
		return nil, func() {}, nil
	}

	m := metrics.New()
	srv := metrics.NewServer(cfg.Metrics.Listen, m)
	if err := srv.Start(); err != nil {
		return nil, nil, fmt.Errorf("start metrics server: %w", err)
	}
	logging.Info("Metrics server listening", "addr", srv.Addr())

	return m, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown failed", "error", err)
		}
	}, nil
}

// newUpdater creates the update client, or nil when updates are disabled.
func newUpdater(cfg config.AppConfig) (*updater.Updater, error) {
	if !cfg.Update.Enabled {
		return nil, nil
	}
	u, err := updater.New(cfg.Update.UpdaterConfig(), updater.BinaryTypeDesktop, nil)
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return u, nil
}

func run(cmd *cobra.Command, args []string) error {
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

	start := time.Now()
	err = desktop.Run(ctx, desktop.Options{
		Config:  cfg,
		Assets:  frontend.FS(),
		Updater: u,
		Metrics: m,
		Logger:  logging.WithComponent("shell"),
	})
	logging.Info("Desktop shell stopped", logging.Since(start))
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
