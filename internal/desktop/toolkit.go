package desktop

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/synergy-app/synergy/internal/shell"
)

// ErrDevToolsUnavailable is returned by InstallDevTools in builds that
// strip the web inspector.
var ErrDevToolsUnavailable = errors.New("devtools are not available in this build")

// Toolkit implements shell.Toolkit on top of a Wails application.
type Toolkit struct {
	app      *application.App
	windows  *registry[*window]
	devTools atomic.Bool
	logger   *slog.Logger
}

// NewToolkit wraps app. onAllClosed runs each time the last window closes.
func NewToolkit(app *application.App, onAllClosed func(), logger *slog.Logger) *Toolkit {
	if logger == nil {
		logger = slog.Default()
	}
	tk := &Toolkit{
		app:     app,
		windows: newRegistry[*window](),
		logger:  logger,
	}
	tk.windows.setOnEmpty(onAllClosed)
	return tk
}

// SetOnAllClosed replaces the last-window-closed callback.
func (tk *Toolkit) SetOnAllClosed(fn func()) {
	tk.windows.setOnEmpty(fn)
}

// NewWindow implements shell.Toolkit.
func (tk *Toolkit) NewWindow(opts shell.WindowOptions) (shell.Window, error) {
	ww := tk.app.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:            opts.Name,
		Title:           opts.Title,
		Width:           opts.Width,
		Height:          opts.Height,
		URL:             opts.URL,
		HTML:            opts.HTML,
		AlwaysOnTop:     opts.AlwaysOnTop,
		DisableResize:   !opts.Resizable,
		Frameless:       opts.Frameless,
		DevToolsEnabled: opts.DevTools || tk.devTools.Load(),
	})

	w := &window{tk: tk, name: opts.Name, ww: ww}
	tk.windows.add(w, opts.Name)

	ww.RegisterHook(events.Common.WindowClosing, func(*application.WindowEvent) {
		w.destroy()
	})

	tk.logger.Debug("Window created", "name", opts.Name, "url", opts.URL)
	return w, nil
}

// WindowCount implements shell.Toolkit.
func (tk *Toolkit) WindowCount() int {
	return tk.windows.count()
}

// Platform implements shell.Toolkit.
func (tk *Toolkit) Platform() string {
	return runtime.GOOS
}

// InstallDevTools enables the web inspector for windows created afterwards.
func (tk *Toolkit) InstallDevTools(ctx context.Context) error {
	if !devToolsAvailable {
		return ErrDevToolsUnavailable
	}
	tk.devTools.Store(true)
	return nil
}

// Quit implements shell.Toolkit.
func (tk *Toolkit) Quit() {
	tk.app.Quit()
}

// Focus shows and focuses the live window with the given name.
func (tk *Toolkit) Focus(name string) bool {
	w, ok := tk.windows.find(name)
	if !ok {
		return false
	}
	w.ww.Show()
	w.ww.Focus()
	return true
}

type window struct {
	tk   *Toolkit
	name string
	ww   *application.WebviewWindow

	destroyed atomic.Bool
	mu        sync.Mutex
	onClosed  []func()
}

func (w *window) Name() string { return w.name }

func (w *window) Close() {
	if w.destroyed.Load() {
		return
	}
	w.ww.Close()
	w.destroy()
}

func (w *window) IsDestroyed() bool {
	return w.destroyed.Load()
}

func (w *window) OpenDevTools() {
	w.ww.OpenDevTools()
}

func (w *window) OnClosed(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClosed = append(w.onClosed, fn)
}

// destroy runs once per window, either from the closing hook or an
// explicit Close.
func (w *window) destroy() {
	if !w.destroyed.CompareAndSwap(false, true) {
		return
	}

	w.mu.Lock()
	callbacks := w.onClosed
	w.onClosed = nil
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	w.tk.windows.remove(w)
}
