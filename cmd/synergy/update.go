package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

var updateChannel string

func newUpdateCommand() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and install updates",
		Long:  `Check for new versions of Synergy and optionally install them.`,
		RunE:  runUpdate,
	}

	updateCheckCmd := &cobra.Command{
		Use:   "check",
		Short: "Check if updates are available",
		RunE:  runUpdateCheck,
	}

	updateInstallCmd := &cobra.Command{
		Use:   "install",
		Short: "Download and install the latest update",
		RunE:  runUpdateInstall,
	}

	updateSkipCmd := &cobra.Command{
		Use:   "skip <version>",
		Short: "Stop notifying about a release",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdateSkip,
	}

	updateCmd.PersistentFlags().StringVar(&updateChannel, "channel", "", "Release channel override (stable, prerelease)")

	updateCmd.AddCommand(updateCheckCmd, updateInstallCmd, updateSkipCmd)

	return updateCmd
}

// cliUpdater builds an update client from the config file for one-shot
// CLI use; the enabled flag only governs the desktop shell.
func cliUpdater(cmd *cobra.Command) (*updater.Updater, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	ucfg := cfg.Update.UpdaterConfig()
	ucfg.Enabled = true
	if updateChannel != "" {
		ucfg.Channel = updater.Channel(updateChannel)
		if !ucfg.Channel.IsPrerelease() && ucfg.Channel != updater.ChannelStable {
			return nil, fmt.Errorf("channel must be 'stable' or 'prerelease', got: %s", updateChannel)
		}
	}

	u, err := updater.New(ucfg, updater.BinaryTypeDesktop, nil)
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return u, nil
}

func printUpdateInfo(out io.Writer, info *updater.UpdateInfo) {
	fmt.Fprintf(out, "Update available!\n")
	fmt.Fprintf(out, "  Current version: %s\n", info.CurrentVersion)
	fmt.Fprintf(out, "  New version:     %s\n", info.NewVersion)
	fmt.Fprintf(out, "  Published:       %s\n", info.PublishedAt.Format(time.RFC1123))
	fmt.Fprintf(out, "  Release URL:     %s\n", info.ReleaseURL)
}

func runUpdateCheck(cmd *cobra.Command, args []string) error {
	u, err := cliUpdater(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	info, err := u.CheckForUpdate(ctx)
	if err != nil {
		if errors.Is(err, updater.ErrNoUpdateAvailable) {
			fmt.Fprintf(out, "Current version %s is up to date.\n", version.Short())
			return nil
		}
		return fmt.Errorf("check for update: %w", err)
	}

	printUpdateInfo(out, info)
	fmt.Fprintf(out, "\nRun 'synergy update install' to install.\n")
	return nil
}

func runUpdateInstall(cmd *cobra.Command, args []string) error {
	u, err := cliUpdater(cmd)
	if err != nil {
		return err
	}
	return installUpdate(cmd, u)
}

func installUpdate(cmd *cobra.Command, u *updater.Updater) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	out := cmd.OutOrStdout()
	info, err := u.CheckForUpdate(ctx)
	if err != nil {
		if errors.Is(err, updater.ErrNoUpdateAvailable) {
			fmt.Fprintf(out, "Already running latest version %s.\n", version.Short())
			return nil
		}
		return fmt.Errorf("check for update: %w", err)
	}

	fmt.Fprintf(out, "Downloading %s (%d MB)...\n", info.NewVersion, info.AssetSize/(1024*1024))

	lastPct := -1
	progress := func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		pct := int(float64(downloaded) / float64(total) * 100)
		if pct != lastPct {
			fmt.Fprintf(out, "\rDownloading: %d%% (%d/%d MB)", pct, downloaded/(1024*1024), total/(1024*1024))
			lastPct = pct
		}
	}

	if err := u.Install(ctx, info, progress); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	fmt.Fprintf(out, "\n\nUpdate installed successfully!\n")
	fmt.Fprintf(out, "Restart Synergy to use version %s.\n", info.NewVersion)
	return nil
}

func runUpdateSkip(cmd *cobra.Command, args []string) error {
	u, err := cliUpdater(cmd)
	if err != nil {
		return err
	}
	if _, err := updater.ParseVersion(args[0]); err != nil {
		return fmt.Errorf("skip %s: %w", args[0], err)
	}
	if err := u.SkipVersion(args[0]); err != nil {
		return fmt.Errorf("skip %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Version %s will not be offered again.\n", args[0])
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	u, err := cliUpdater(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	info, err := u.CheckForUpdate(ctx)
	if err != nil {
		if errors.Is(err, updater.ErrNoUpdateAvailable) {
			fmt.Fprintf(out, "Current version %s is up to date.\n", version.Short())
			return nil
		}
		return fmt.Errorf("check for update: %w", err)
	}

	printUpdateInfo(out, info)
	fmt.Fprintf(out, "\nWould you like to install this update? [y/N]: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "y" || response == "yes" {
		return installUpdate(cmd, u)
	}

	fmt.Fprintln(out, "Update skipped.")
	return nil
}
