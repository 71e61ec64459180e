package shell

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/synergy-app/synergy/internal/metrics"
)

// PopupOptions sizes the status popup.
type PopupOptions struct {
	Title   string
	Width   int
	Height  int
	Timeout time.Duration
}

// PopupFactory creates status popups. Every message gets its own window;
// popups are never queued or merged.
type PopupFactory struct {
	toolkit Toolkit
	opts    PopupOptions
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewPopupFactory creates a PopupFactory. m may be nil.
func NewPopupFactory(tk Toolkit, opts PopupOptions, m *metrics.Collector, logger *slog.Logger) *PopupFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopupFactory{
		toolkit: tk,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// Show opens a popup displaying message and schedules it to close after the
// configured timeout.
func (f *PopupFactory) Show(message string) (*Popup, error) {
	w, err := f.toolkit.NewWindow(WindowOptions{
		Name:        "update-status-" + uuid.NewString(),
		Title:       f.opts.Title,
		Width:       f.opts.Width,
		Height:      f.opts.Height,
		HTML:        StatusDocument(f.opts.Title, message),
		AlwaysOnTop: true,
		Resizable:   false,
		Frameless:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("create popup window: %w", err)
	}

	p := &Popup{
		window:  w,
		message: message,
		release: f.metrics.PopupOpened(),
		done:    make(chan struct{}),
	}

	w.OnClosed(func() { p.finish(false) })

	p.mu.Lock()
	p.timer = time.AfterFunc(f.opts.Timeout, p.Close)
	p.mu.Unlock()

	return p, nil
}

// Present implements Presenter. Failures are logged.
func (f *PopupFactory) Present(message string) {
	if _, err := f.Show(message); err != nil {
		f.logger.Error("Failed to show update status", "message", message, "error", err)
	}
}

// Popup owns one status window until the timer fires or it is closed,
// whichever happens first.
type Popup struct {
	window  Window
	message string
	release func()

	mu    sync.Mutex
	timer *time.Timer

	closed atomic.Bool
	done   chan struct{}
}

// Close stops the timer and closes the window unless the toolkit already
// destroyed it. Only the first call has any effect.
func (p *Popup) Close() {
	p.finish(true)
}

func (p *Popup) finish(closeWindow bool) {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	p.mu.Lock()
	t := p.timer
	p.mu.Unlock()
	if t != nil {
		t.Stop()
	}

	if closeWindow && !p.window.IsDestroyed() {
		p.window.Close()
	}

	p.release()
	close(p.done)
}

// Done is closed once the popup has been released.
func (p *Popup) Done() <-chan struct{} {
	return p.done
}

// Message returns the text the popup shows.
func (p *Popup) Message() string {
	return p.message
}

// Window returns the popup's window.
func (p *Popup) Window() Window {
	return p.window
}
