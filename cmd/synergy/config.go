package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synergy-app/synergy/internal/config"
)

// Config init flags
var (
	initOutput    string
	initDevServer string
	initChannel   string
	initMetrics   string
	initForce     bool
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file with sensible defaults.

The generated configuration includes:
  - Main window and update popup sizes
  - Update settings (GitHub repository, channel, auto download and install)
  - Development switches (dev server URL, native bindings, test mode)
  - Logging and metrics settings`,
		RunE: runConfigInit,
	}

	initCmd.Flags().StringVarP(&initOutput, "output", "o", defaultConfigFile, "output file path")
	initCmd.Flags().StringVar(&initDevServer, "dev-server", "", "development server URL")
	initCmd.Flags().StringVar(&initChannel, "channel", "stable", "release channel (stable, prerelease)")
	initCmd.Flags().StringVar(&initMetrics, "metrics-listen", "", "metrics listen address (empty disables)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing file (a backup is kept)")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil {
		if !initForce {
			return fmt.Errorf("file %s already exists (use --force to overwrite)", initOutput)
		}
		backup, err := config.Backup(initOutput)
		if err != nil {
			return fmt.Errorf("backup existing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Existing configuration saved to %s\n", backup)
	}

	cfg := config.DefaultAppConfig()
	cfg.Dev.ServerURL = initDevServer
	cfg.Update.Channel = initChannel
	cfg.Metrics.Listen = initMetrics

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if err := config.Save(initOutput, &cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated configuration: %s\n\n", initOutput)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Review and customize the configuration")
	fmt.Fprintf(out, "  2. Start Synergy: synergy -c %s\n", initOutput)

	return nil
}
