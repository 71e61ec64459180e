// Package updater is Synergy's auto-update client. It follows GitHub
// releases, downloads and verifies the platform archive, stages it, and
// replaces the running binary on request or when the app quits. Progress is
// reported to a Listener as a fixed set of Event variants.
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synergy-app/synergy/internal/logging"
	"github.com/synergy-app/synergy/internal/version"
)

// UpdateInfo contains information about an available update.
type UpdateInfo struct {
	CurrentVersion string    `json:"current_version"`
	NewVersion     string    `json:"new_version"`
	Version        string    `json:"version"`
	ReleaseURL     string    `json:"release_url"`
	ReleaseNotes   string    `json:"release_notes"`
	PublishedAt    time.Time `json:"published_at"`
	AssetURL       string    `json:"asset_url"`
	AssetName      string    `json:"asset_name"`
	AssetSize      int64     `json:"asset_size"`
	Checksum       string    `json:"checksum"`
}

// Updater checks GitHub for new releases and installs them.
type Updater struct {
	config     Config
	feed       *releaseFeed
	downloader *Downloader
	installer  *Installer
	state      *State
	listener   Listener
	binaryType BinaryType
	cacheDir   string

	quit     func()
	relaunch func() error
	now      func() time.Time

	checking     atomic.Bool
	restart      atomic.Bool
	initialDelay time.Duration

	stopCh chan struct{}
	mu     sync.Mutex
}

// New creates an Updater. listener may be nil.
func New(cfg Config, binaryType BinaryType, listener Listener) (*Updater, error) {
	statePath := cfg.StateFile
	if statePath == "" {
		statePath = DefaultStatePath()
	}

	state, err := LoadState(statePath)
	if err != nil {
		return nil, err
	}

	return &Updater{
		config:       cfg,
		feed:         newReleaseFeed(cfg.GitHubOwner, cfg.GitHubRepo),
		downloader:   NewDownloader(),
		installer:    NewInstaller(binaryType),
		state:        state,
		listener:     listener,
		binaryType:   binaryType,
		cacheDir:     filepath.Join(filepath.Dir(statePath), "pending"),
		relaunch:     Relaunch,
		now:          time.Now,
		initialDelay: time.Minute,
	}, nil
}

// Config returns the configuration the updater was built with.
func (u *Updater) Config() Config {
	return u.config
}

// SetListener replaces the event listener. Call before starting checks.
func (u *Updater) SetListener(l Listener) {
	u.listener = l
}

// SetQuitFunc sets the hook QuitAndInstall uses to exit the application.
func (u *Updater) SetQuitFunc(quit func()) {
	u.quit = quit
}

func (u *Updater) emit(ev Event) {
	if u.listener != nil {
		u.listener.OnUpdateEvent(ev)
	}
}

// CheckForUpdate checks if a newer release than the running build exists.
func (u *Updater) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	currentVersionStr := version.Version
	currentVersion, currentErr := ParseVersion(currentVersionStr)

	latest, err := u.feed.latest(ctx, u.config.Channel.IsPrerelease())
	if err != nil {
		return nil, err
	}

	releaseVersion, err := ParseVersion(latest.TagName)
	if err != nil {
		return nil, err
	}

	var isNewer bool
	switch {
	case currentErr == nil:
		isNewer = releaseVersion.IsNewerThan(currentVersion)
	case currentVersionStr != latest.TagName:
		// Non-semver build (dev or commit hash): compare against build time.
		// An unknown build time always accepts the release.
		localBuildTime, timeErr := time.Parse(time.RFC3339, version.BuildTime)
		isNewer = timeErr != nil || latest.PublishedAt.After(localBuildTime)
	}

	if !isNewer {
		return nil, ErrNoUpdateAvailable
	}

	info, err := u.feed.resolve(ctx, latest)
	if err != nil {
		return nil, err
	}
	info.CurrentVersion = currentVersionStr
	return info, nil
}

// CheckForUpdatesAndNotify runs a full check, reporting every step to the
// listener: checking, then not-available, error or available, and with
// AutoDownload the download progress and downloaded events. A call made
// while another is running returns ErrCheckInProgress without events.
func (u *Updater) CheckForUpdatesAndNotify(ctx context.Context) error {
	if !u.checking.CompareAndSwap(false, true) {
		return ErrCheckInProgress
	}
	defer u.checking.Store(false)

	u.emit(CheckingForUpdate{})

	info, err := u.CheckForUpdate(ctx)
	u.state.MarkChecked()
	u.saveState()

	if err != nil {
		switch {
		case errors.Is(err, ErrNoUpdateAvailable):
			u.emit(UpdateNotAvailable{Info: UpdateInfo{
				CurrentVersion: version.Version,
				Version:        strings.TrimPrefix(version.Version, "v"),
			}})
			return nil
		case ctx.Err() != nil:
			u.emit(OtherEvent{Type: EventUpdateCancelled, Detail: ctx.Err().Error()})
			return ctx.Err()
		default:
			u.emit(UpdateError{Err: err})
			return err
		}
	}

	if u.state.IsSkipped(info.NewVersion) {
		u.emit(OtherEvent{Type: EventUpdateSkipped, Detail: info.Version})
		return nil
	}

	u.emit(UpdateAvailable{Info: *info})
	u.state.MarkNotified(info.NewVersion)
	u.saveState()

	if !u.config.AutoDownload {
		return nil
	}

	return u.Download(ctx, info)
}

// Download fetches and verifies the archive for info and stages it for
// installation, emitting progress and downloaded events. An archive already
// staged for the same version is reused.
func (u *Updater) Download(ctx context.Context, info *UpdateInfo) error {
	if pending, ok := u.state.PendingUpdate(); ok && pending.Version == info.NewVersion {
		if verifyFile(pending.ArchivePath, info.Checksum) == nil {
			u.emit(UpdateDownloaded{Info: *info})
			return nil
		}
	}

	if err := os.MkdirAll(u.cacheDir, 0755); err != nil {
		err = fmt.Errorf("%w: create cache dir: %v", ErrDownloadFailed, err)
		u.emit(UpdateError{Err: err})
		return err
	}

	archivePath := filepath.Join(u.cacheDir, info.AssetName)
	start := u.now()
	tracker := newProgressTracker(u.emit, u.now)

	if err := u.downloader.Download(ctx, info.AssetURL, archivePath, tracker.update); err != nil {
		if ctx.Err() != nil {
			u.emit(OtherEvent{Type: EventUpdateCancelled, Detail: ctx.Err().Error()})
			return ctx.Err()
		}
		u.emit(UpdateError{Err: err})
		return err
	}

	if err := verifyFile(archivePath, info.Checksum); err != nil {
		os.Remove(archivePath)
		u.emit(UpdateError{Err: err})
		return err
	}

	u.state.SetPending(PendingUpdate{
		Version:     info.NewVersion,
		ArchivePath: archivePath,
		Checksum:    info.Checksum,
	})
	u.saveState()

	logging.Info("Update downloaded", "version", info.NewVersion, "path", archivePath, "elapsed", u.now().Sub(start))
	u.emit(UpdateDownloaded{Info: *info})
	return nil
}

// HasPendingUpdate reports whether a downloaded update awaits installation.
func (u *Updater) HasPendingUpdate() bool {
	_, ok := u.state.PendingUpdate()
	return ok
}

// QuitAndInstall installs the staged update, marks the process for restart
// and calls the quit hook. The new binary is started by RelaunchIfInstalled
// once the application has exited and released its single-instance lock.
func (u *Updater) QuitAndInstall(ctx context.Context) error {
	if err := u.installPending(ctx); err != nil {
		u.emit(UpdateError{Err: err})
		return err
	}

	u.restart.Store(true)
	if u.quit != nil {
		u.quit()
	}
	return nil
}

// RestartPending reports whether QuitAndInstall has installed an update that
// still needs to be started.
func (u *Updater) RestartPending() bool {
	return u.restart.Load()
}

// RelaunchIfInstalled starts the updated binary after QuitAndInstall. Call
// it after the application run loop has returned. It runs at most once and
// does nothing when no update was installed.
func (u *Updater) RelaunchIfInstalled() error {
	if !u.restart.CompareAndSwap(true, false) || u.relaunch == nil {
		return nil
	}
	if err := u.relaunch(); err != nil {
		return fmt.Errorf("relaunch after update: %w", err)
	}
	logging.Info("Relaunched updated binary")
	return nil
}

// InstallOnQuit installs a staged update when AutoInstallOnAppQuit is set.
// It does nothing when no update is staged.
func (u *Updater) InstallOnQuit(ctx context.Context) error {
	if !u.config.AutoInstallOnAppQuit || !u.HasPendingUpdate() {
		return nil
	}
	return u.installPending(ctx)
}

func (u *Updater) installPending(ctx context.Context) error {
	pending, ok := u.state.PendingUpdate()
	if !ok {
		return ErrNoPendingUpdate
	}

	if err := verifyFile(pending.ArchivePath, pending.Checksum); err != nil {
		u.state.ClearPending()
		u.saveState()
		return err
	}

	if err := u.installer.Install(ctx, pending.ArchivePath); err != nil {
		return err
	}

	u.state.ClearPending()
	u.saveState()
	os.Remove(pending.ArchivePath)

	logging.Info("Installed update", "version", pending.Version)
	return nil
}

// Install downloads, verifies and installs info immediately. Used by the CLI.
func (u *Updater) Install(ctx context.Context, info *UpdateInfo, progress ProgressCallback) error {
	tempDir, err := os.MkdirTemp("", "synergy-update-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	archivePath := filepath.Join(tempDir, info.AssetName)

	if err := u.downloader.Download(ctx, info.AssetURL, archivePath, progress); err != nil {
		return err
	}

	if err := verifyFile(archivePath, info.Checksum); err != nil {
		return err
	}

	return u.installer.Install(ctx, archivePath)
}

// StartBackgroundChecker runs CheckForUpdatesAndNotify every CheckInterval
// after an initial delay. A zero interval disables it.
func (u *Updater) StartBackgroundChecker(ctx context.Context) {
	if u.config.CheckInterval <= 0 {
		return
	}

	u.mu.Lock()
	if u.stopCh != nil {
		u.mu.Unlock()
		return
	}
	u.stopCh = make(chan struct{})
	stopCh := u.stopCh
	u.mu.Unlock()

	go func() {
		select {
		case <-time.After(u.initialDelay):
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		}

		u.backgroundCheck(ctx)

		ticker := time.NewTicker(u.config.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				u.backgroundCheck(ctx)
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}()
}

func (u *Updater) backgroundCheck(ctx context.Context) {
	if !u.state.ShouldCheck(u.config.CheckInterval) {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if err := u.CheckForUpdatesAndNotify(checkCtx); err != nil && !errors.Is(err, ErrCheckInProgress) {
		logging.Debug("Background update check failed", "error", err)
	}
}

// StopBackgroundChecker stops the periodic update checker.
func (u *Updater) StopBackgroundChecker() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stopCh != nil {
		close(u.stopCh)
		u.stopCh = nil
	}
}

// Cleanup removes files left behind by earlier updates: the previous
// binary next to the executable and staged archives that are no longer
// pending. It returns the removed paths. Call it once at startup.
func (u *Updater) Cleanup() []string {
	var candidates []string
	if target, err := u.installer.Target(); err == nil {
		candidates = leftovers(target)
	}

	pending, hasPending := u.state.PendingUpdate()
	entries, _ := os.ReadDir(u.cacheDir)
	for _, e := range entries {
		path := filepath.Join(u.cacheDir, e.Name())
		if e.IsDir() || (hasPending && path == pending.ArchivePath) {
			continue
		}
		candidates = append(candidates, path)
	}

	var removed []string
	for _, path := range candidates {
		if os.Remove(path) == nil {
			removed = append(removed, path)
		}
	}
	if len(removed) > 0 {
		logging.Debug("Removed update leftovers", "paths", removed)
	}
	return removed
}

// SkipVersion stops notifications for version (a tag such as "v1.2.3").
func (u *Updater) SkipVersion(version string) error {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	u.state.SkipVersion(version)
	return u.state.Save()
}

func (u *Updater) saveState() {
	if err := u.state.Save(); err != nil {
		logging.Debug("Failed to save update state", "error", err)
	}
}
