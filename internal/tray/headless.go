package tray

import (
	"log/slog"
	"sync"
)

// headlessAdapter stands in for the native tray on builds without cgo. The
// menu lives in memory and the tooltip goes to the log, so a headless
// agent still reports update status.
type headlessAdapter struct {
	logger *slog.Logger

	mu      sync.Mutex
	tooltip string
	items   []*headlessItem

	quit     chan struct{}
	quitOnce sync.Once
}

func newHeadlessAdapter(logger *slog.Logger) *headlessAdapter {
	return &headlessAdapter{logger: logger, quit: make(chan struct{})}
}

// Run calls onReady and blocks until Quit, like the native event loop.
func (a *headlessAdapter) Run(onReady func(), onExit func()) {
	a.logger.Warn("System tray not available, running headless (built without cgo)")
	onReady()
	<-a.quit
	onExit()
}

func (a *headlessAdapter) SetIcon([]byte)  {}
func (a *headlessAdapter) SetTitle(string) {}
func (a *headlessAdapter) AddSeparator()   {}

func (a *headlessAdapter) SetTooltip(tooltip string) {
	a.mu.Lock()
	changed := tooltip != a.tooltip
	a.tooltip = tooltip
	a.mu.Unlock()

	if changed {
		a.logger.Info("Tray status", "status", tooltip)
	}
}

func (a *headlessAdapter) AddMenuItem(title string, tooltip string) MenuItem {
	item := &headlessItem{title: title, tooltip: tooltip, enabled: true, visible: true, clicked: make(chan struct{})}
	a.mu.Lock()
	a.items = append(a.items, item)
	a.mu.Unlock()
	return item
}

func (a *headlessAdapter) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Tooltip returns the last tooltip set.
func (a *headlessAdapter) Tooltip() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tooltip
}

// Items returns the menu in insertion order.
func (a *headlessAdapter) Items() []*headlessItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*headlessItem(nil), a.items...)
}

// headlessItem records menu state. Its Clicked channel never fires.
type headlessItem struct {
	mu      sync.Mutex
	title   string
	tooltip string
	enabled bool
	visible bool
	clicked chan struct{}
}

func (m *headlessItem) SetTitle(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

func (m *headlessItem) SetTooltip(tooltip string) {
	m.mu.Lock()
	m.tooltip = tooltip
	m.mu.Unlock()
}

func (m *headlessItem) Enable()  { m.setEnabled(true) }
func (m *headlessItem) Disable() { m.setEnabled(false) }
func (m *headlessItem) Show()    { m.setVisible(true) }
func (m *headlessItem) Hide()    { m.setVisible(false) }

func (m *headlessItem) Clicked() <-chan struct{} { return m.clicked }

func (m *headlessItem) setEnabled(v bool) {
	m.mu.Lock()
	m.enabled = v
	m.mu.Unlock()
}

func (m *headlessItem) setVisible(v bool) {
	m.mu.Lock()
	m.visible = v
	m.mu.Unlock()
}

func (m *headlessItem) state() (title string, enabled, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title, m.enabled, m.visible
}
