// Package tray provides the Synergy system tray agent, which runs the update
// client without a webview and shows update status in the tray menu.
package tray

import (
	"context"
	"sync"

	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

// Status selects the tray icon.
type Status int

const (
	StatusIdle Status = iota
	StatusChecking
	StatusUpdateReady
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusUpdateReady:
		return "update-ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// StatusFor maps an update event to the icon it should show.
func StatusFor(ev updater.Event) Status {
	switch ev.(type) {
	case updater.CheckingForUpdate, updater.DownloadProgress:
		return StatusChecking
	case updater.UpdateAvailable, updater.UpdateDownloaded:
		return StatusUpdateReady
	case updater.UpdateError:
		return StatusError
	default:
		return StatusIdle
	}
}

// MenuItem represents a menu item interface for abstraction.
type MenuItem interface {
	SetTitle(title string)
	SetTooltip(tooltip string)
	Enable()
	Disable()
	Show()
	Hide()
	Clicked() <-chan struct{}
}

// SystrayAdapter provides an interface for systray operations.
// This allows mocking the systray package for testing.
type SystrayAdapter interface {
	Run(onReady func(), onExit func())
	SetIcon(iconBytes []byte)
	SetTitle(title string)
	SetTooltip(tooltip string)
	AddMenuItem(title string, tooltip string) MenuItem
	AddSeparator()
	Quit()
}

// Config holds tray callbacks. Nil callbacks are skipped, and a nil OnCheck
// disables the Check for Updates item.
type Config struct {
	OnCheck func()
	OnOpen  func()

	// OnRelease receives the release page of the latest available update.
	OnRelease func(url string)

	OnQuit func()
}

const initialStatusLine = "No update checks yet"

// Tray is the system tray agent.
type Tray struct {
	cfg     Config
	adapter SystrayAdapter

	mu          sync.Mutex
	status      Status
	message     string
	releaseURL  string
	statusItem  MenuItem
	releaseItem MenuItem

	quitOnce sync.Once
	done     chan struct{}
}

// New creates a new system tray.
func New(cfg Config) *Tray {
	return NewWithAdapter(cfg, defaultAdapter)
}

// NewWithAdapter creates a new system tray with a custom adapter (for testing).
func NewWithAdapter(cfg Config, adapter SystrayAdapter) *Tray {
	return &Tray{
		cfg:     cfg,
		adapter: adapter,
		status:  StatusIdle,
		message: initialStatusLine,
		done:    make(chan struct{}),
	}
}

// Run shows the tray and blocks until Quit is called or ctx is done.
func (t *Tray) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, t.Quit)
	defer stop()

	t.adapter.Run(t.onReady, t.onExit)
	<-t.done
}

// Present implements shell.Presenter by showing message on the status line.
func (t *Tray) Present(message string) {
	t.mu.Lock()
	t.message = message
	item := t.statusItem
	t.mu.Unlock()

	if item != nil {
		item.SetTitle(message)
	}
	t.adapter.SetTooltip(version.ProductName + ": " + message)
}

// Message returns the current status line.
func (t *Tray) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// SetStatus updates the tray icon status.
func (t *Tray) SetStatus(status Status) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
	t.updateIcon()
}

// Status returns the current icon status.
func (t *Tray) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetReleaseURL shows the release notes item for url, or hides it when url
// is empty.
func (t *Tray) SetReleaseURL(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseURL = url

	switch {
	case t.releaseItem == nil:
	case url == "":
		t.releaseItem.Hide()
	default:
		t.releaseItem.Show()
	}
}

// ReleaseURL returns the release page of the latest available update.
func (t *Tray) ReleaseURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releaseURL
}

// Listener returns an update listener that sets the icon for each event and
// then hands it to next.
func (t *Tray) Listener(next updater.Listener) updater.Listener {
	return updater.ListenerFunc(func(ev updater.Event) {
		t.SetStatus(StatusFor(ev))
		switch e := ev.(type) {
		case updater.UpdateAvailable:
			t.SetReleaseURL(e.Info.ReleaseURL)
		case updater.UpdateNotAvailable:
			t.SetReleaseURL("")
		}
		if next != nil {
			next.OnUpdateEvent(ev)
		}
	})
}

func (t *Tray) onReady() {
	t.adapter.SetTitle(version.ProductName)
	t.adapter.SetTooltip(version.ProductName)
	t.updateIcon()

	t.mu.Lock()
	message := t.message
	t.mu.Unlock()

	mStatus := t.adapter.AddMenuItem(message, "Update status")
	mStatus.Disable()

	t.mu.Lock()
	t.statusItem = mStatus
	t.mu.Unlock()

	t.adapter.AddSeparator()

	mCheck := t.adapter.AddMenuItem("Check for Updates", "Check GitHub for a newer release")
	mRelease := t.adapter.AddMenuItem("Release Notes", "Open the release page in a browser")
	mOpen := t.adapter.AddMenuItem("Open "+version.ProductName, "Open the desktop app")

	if t.cfg.OnCheck == nil {
		mCheck.SetTooltip("Updates are disabled")
		mCheck.Disable()
	}

	t.mu.Lock()
	t.releaseItem = mRelease
	if t.releaseURL == "" {
		mRelease.Hide()
	}
	t.mu.Unlock()

	t.adapter.AddSeparator()

	mQuit := t.adapter.AddMenuItem("Quit", "Quit "+version.ProductName)

	go func() {
		for {
			select {
			case <-mCheck.Clicked():
				if t.cfg.OnCheck != nil {
					t.cfg.OnCheck()
				}

			case <-mRelease.Clicked():
				if url := t.ReleaseURL(); url != "" && t.cfg.OnRelease != nil {
					t.cfg.OnRelease(url)
				}

			case <-mOpen.Clicked():
				if t.cfg.OnOpen != nil {
					t.cfg.OnOpen()
				}

			case <-mQuit.Clicked():
				if t.cfg.OnQuit != nil {
					t.cfg.OnQuit()
				}
				t.Quit()
				return

			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.quitOnce.Do(func() { close(t.done) })
}

func (t *Tray) updateIcon() {
	var icon []byte
	switch t.Status() {
	case StatusChecking:
		icon = iconChecking
	case StatusUpdateReady:
		icon = iconReady
	case StatusError:
		icon = iconError
	default:
		icon = iconIdle
	}
	t.adapter.SetIcon(icon)
}

// Quit removes the tray and unblocks Run. It is safe to call more than once.
func (t *Tray) Quit() {
	t.quitOnce.Do(func() {
		close(t.done)
		t.adapter.Quit()
	})
}

// Done is closed when the tray has quit.
func (t *Tray) Done() <-chan struct{} {
	return t.done
}
