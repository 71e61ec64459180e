//go:build cgo

package tray

import (
	"fyne.io/systray"
)

// realMenuItem wraps systray.MenuItem to implement MenuItem interface.
type realMenuItem struct {
	item *systray.MenuItem
}

func (m *realMenuItem) SetTitle(title string)     { m.item.SetTitle(title) }
func (m *realMenuItem) SetTooltip(tooltip string) { m.item.SetTooltip(tooltip) }
func (m *realMenuItem) Enable()                   { m.item.Enable() }
func (m *realMenuItem) Disable()                  { m.item.Disable() }
func (m *realMenuItem) Show()                     { m.item.Show() }
func (m *realMenuItem) Hide()                     { m.item.Hide() }
func (m *realMenuItem) Clicked() <-chan struct{}  { return m.item.ClickedCh }

// realSystrayAdapter drives the native tray through fyne.io/systray.
type realSystrayAdapter struct{}

func (realSystrayAdapter) Run(onReady func(), onExit func()) { systray.Run(onReady, onExit) }
func (realSystrayAdapter) SetIcon(iconBytes []byte)          { systray.SetIcon(iconBytes) }
func (realSystrayAdapter) SetTitle(title string)             { systray.SetTitle(title) }
func (realSystrayAdapter) SetTooltip(tooltip string)         { systray.SetTooltip(tooltip) }
func (realSystrayAdapter) AddSeparator()                     { systray.AddSeparator() }
func (realSystrayAdapter) Quit()                             { systray.Quit() }

func (realSystrayAdapter) AddMenuItem(title string, tooltip string) MenuItem {
	return &realMenuItem{item: systray.AddMenuItem(title, tooltip)}
}

var defaultAdapter SystrayAdapter = realSystrayAdapter{}
