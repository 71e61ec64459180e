package shell

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/synergy-app/synergy/internal/metrics"
	"github.com/synergy-app/synergy/internal/updater"
)

// Status strings shown for update events.
const (
	MsgChecking     = "Checking for update..."
	MsgNotAvailable = "No updates found"
	MsgDownloaded   = "Update downloaded. Restarting..."
)

// installTimeout bounds QuitAndInstall triggered by a downloaded update.
const installTimeout = 2 * time.Minute

// StatusMessage returns the text shown for ev.
func StatusMessage(ev updater.Event) string {
	switch e := ev.(type) {
	case updater.CheckingForUpdate:
		return MsgChecking
	case updater.UpdateAvailable:
		return "Update available: " + displayVersion(e.Info)
	case updater.UpdateNotAvailable:
		return MsgNotAvailable
	case updater.UpdateError:
		return "Error: " + errorText(e.Err)
	case updater.DownloadProgress:
		return fmt.Sprintf("Downloading: %d%%", roundPercent(e.Percent))
	case updater.UpdateDownloaded:
		return MsgDownloaded
	case updater.OtherEvent:
		return "Update status: " + e.Type
	default:
		return "Update status: " + ev.Name()
	}
}

func displayVersion(info updater.UpdateInfo) string {
	if info.Version != "" {
		return info.Version
	}
	return strings.TrimPrefix(info.NewVersion, "v")
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// roundPercent rounds half up, so 12.5 shows as 13.
func roundPercent(p float64) int {
	return int(math.Floor(p + 0.5))
}

// Relay turns update client events into status messages.
type Relay struct {
	presenter Presenter
	installer Installer
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewRelay creates a Relay. installer and m may be nil.
func NewRelay(presenter Presenter, installer Installer, m *metrics.Collector, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		presenter: presenter,
		installer: installer,
		metrics:   m,
		logger:    logger,
	}
}

// OnUpdateEvent implements updater.Listener.
func (r *Relay) OnUpdateEvent(ev updater.Event) {
	r.metrics.RecordUpdateEvent(ev.Name())
	r.log(ev)

	r.presenter.Present(StatusMessage(ev))

	if _, ok := ev.(updater.UpdateDownloaded); ok && r.installer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
		defer cancel()
		if err := r.installer.QuitAndInstall(ctx); err != nil {
			r.logger.Error("Failed to install update", "error", err)
		}
	}
}

func (r *Relay) log(ev updater.Event) {
	switch e := ev.(type) {
	case updater.UpdateError:
		r.logger.Error("Error in auto-updater", "error", e.Err)
	case updater.DownloadProgress:
		r.metrics.RecordDownloadProgress(e.Percent)
		r.logger.Info("Download progress",
			"bytes_per_second", e.BytesPerSecond,
			"percent", e.Percent,
			"transferred", e.Transferred,
			"total", e.Total,
		)
	case updater.UpdateAvailable:
		r.logger.Info("Update available", "version", e.Info.NewVersion, "release", e.Info.ReleaseURL)
	case updater.UpdateDownloaded:
		r.logger.Info("Update downloaded", "version", e.Info.NewVersion)
	default:
		r.logger.Info("Update status", "event", ev.Name())
	}
}
