package tray

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergy-app/synergy/internal/updater"
)

// mockMenuItem implements MenuItem interface for testing.
type mockMenuItem struct {
	mu        sync.Mutex
	title     string
	tooltip   string
	enabled   bool
	visible   bool
	clickedCh chan struct{}
}

func newMockMenuItem(title, tooltip string) *mockMenuItem {
	return &mockMenuItem{
		title:     title,
		tooltip:   tooltip,
		enabled:   true,
		visible:   true,
		clickedCh: make(chan struct{}, 10),
	}
}

func (m *mockMenuItem) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

func (m *mockMenuItem) SetTooltip(tooltip string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tooltip = tooltip
}

func (m *mockMenuItem) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

func (m *mockMenuItem) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

func (m *mockMenuItem) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = true
}

func (m *mockMenuItem) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = false
}

func (m *mockMenuItem) Clicked() <-chan struct{} {
	return m.clickedCh
}

func (m *mockMenuItem) Click() {
	m.clickedCh <- struct{}{}
}

func (m *mockMenuItem) GetTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

func (m *mockMenuItem) GetTooltip() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tooltip
}

func (m *mockMenuItem) IsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *mockMenuItem) IsVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// mockSystrayAdapter implements SystrayAdapter for testing.
type mockSystrayAdapter struct {
	mu            sync.Mutex
	icon          []byte
	title         string
	tooltip       string
	menuItems     []*mockMenuItem
	separatorCnt  int
	quitCalled    bool
	onReadyCalled bool
	onExitCalled  bool
	runBlocking   bool
}

func newMockAdapter() *mockSystrayAdapter {
	return &mockSystrayAdapter{
		menuItems: make([]*mockMenuItem, 0),
	}
}

func (a *mockSystrayAdapter) Run(onReady func(), onExit func()) {
	a.mu.Lock()
	a.onReadyCalled = true
	blocking := a.runBlocking
	a.mu.Unlock()

	onReady()

	if blocking {
		for {
			a.mu.Lock()
			if a.quitCalled {
				a.mu.Unlock()
				break
			}
			a.mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		}
	}

	a.mu.Lock()
	a.onExitCalled = true
	a.mu.Unlock()
	onExit()
}

func (a *mockSystrayAdapter) SetIcon(iconBytes []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.icon = iconBytes
}

func (a *mockSystrayAdapter) SetTitle(title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.title = title
}

func (a *mockSystrayAdapter) SetTooltip(tooltip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tooltip = tooltip
}

func (a *mockSystrayAdapter) AddMenuItem(title string, tooltip string) MenuItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	item := newMockMenuItem(title, tooltip)
	a.menuItems = append(a.menuItems, item)
	return item
}

func (a *mockSystrayAdapter) AddSeparator() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.separatorCnt++
}

func (a *mockSystrayAdapter) Quit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quitCalled = true
}

func (a *mockSystrayAdapter) GetIcon() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.icon
}

func (a *mockSystrayAdapter) GetTitle() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.title
}

func (a *mockSystrayAdapter) GetTooltip() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tooltip
}

func (a *mockSystrayAdapter) GetMenuItem(index int) *mockMenuItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index >= 0 && index < len(a.menuItems) {
		return a.menuItems[index]
	}
	return nil
}

func (a *mockSystrayAdapter) GetSeparatorCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.separatorCnt
}

func (a *mockSystrayAdapter) IsQuitCalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quitCalled
}

func (a *mockSystrayAdapter) WasOnReadyCalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onReadyCalled
}

func (a *mockSystrayAdapter) WasOnExitCalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onExitCalled
}

// Menu positions as built by onReady.
const (
	itemStatus = iota
	itemCheck
	itemRelease
	itemOpen
	itemQuit
)

// runTray starts t on a blocking mock adapter and waits for the menu.
func runTray(t *testing.T, cfg Config) (*Tray, *mockSystrayAdapter, <-chan struct{}) {
	t.Helper()
	adapter := newMockAdapter()
	adapter.runBlocking = true
	tray := NewWithAdapter(cfg, adapter)

	stopped := make(chan struct{})
	go func() {
		tray.Run(context.Background())
		close(stopped)
	}()

	require.Eventually(t, func() bool { return adapter.GetMenuItem(itemQuit) != nil }, time.Second, 5*time.Millisecond)
	t.Cleanup(tray.Quit)
	return tray, adapter, stopped
}

func TestNewWithAdapter(t *testing.T) {
	adapter := newMockAdapter()
	tray := NewWithAdapter(Config{}, adapter)

	require.NotNil(t, tray)
	assert.Equal(t, StatusIdle, tray.Status())
	assert.Equal(t, initialStatusLine, tray.Message())
	assert.Equal(t, adapter, tray.adapter)
}

func TestDefaultAdapter_IsSet(t *testing.T) {
	assert.NotNil(t, defaultAdapter)
	assert.NotNil(t, New(Config{}).adapter)
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusChecking, "checking"},
		{StatusUpdateReady, "update-ready"},
		{StatusError, "error"},
		{Status(99), "idle"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		event updater.Event
		want  Status
	}{
		{updater.CheckingForUpdate{}, StatusChecking},
		{updater.DownloadProgress{Percent: 40}, StatusChecking},
		{updater.UpdateAvailable{}, StatusUpdateReady},
		{updater.UpdateDownloaded{}, StatusUpdateReady},
		{updater.UpdateError{Err: errors.New("boom")}, StatusError},
		{updater.UpdateNotAvailable{}, StatusIdle},
		{updater.OtherEvent{Type: "update-skipped"}, StatusIdle},
	}
	for _, tt := range tests {
		t.Run(tt.event.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.event))
		})
	}
}

func TestTray_SetStatus(t *testing.T) {
	adapter := newMockAdapter()
	tray := NewWithAdapter(Config{}, adapter)

	tests := []struct {
		status       Status
		expectedIcon []byte
	}{
		{StatusIdle, iconIdle},
		{StatusChecking, iconChecking},
		{StatusUpdateReady, iconReady},
		{StatusError, iconError},
		{Status(99), iconIdle},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			tray.SetStatus(tt.status)
			assert.Equal(t, tt.status, tray.Status())
			assert.Equal(t, tt.expectedIcon, adapter.GetIcon())
		})
	}
}

func TestTray_onReady_SetsUpMenu(t *testing.T) {
	_, adapter, _ := runTray(t, Config{})

	assert.Equal(t, "Synergy", adapter.GetTitle())
	assert.Equal(t, iconIdle, adapter.GetIcon())
	assert.Equal(t, 2, adapter.GetSeparatorCount())

	assert.Equal(t, initialStatusLine, adapter.GetMenuItem(itemStatus).GetTitle())
	assert.False(t, adapter.GetMenuItem(itemStatus).IsEnabled(), "status line should be disabled")
	assert.Equal(t, "Check for Updates", adapter.GetMenuItem(itemCheck).GetTitle())
	assert.Equal(t, "Release Notes", adapter.GetMenuItem(itemRelease).GetTitle())
	assert.False(t, adapter.GetMenuItem(itemRelease).IsVisible(), "release notes hidden until an update is found")
	assert.Equal(t, "Open Synergy", adapter.GetMenuItem(itemOpen).GetTitle())
	assert.Equal(t, "Quit", adapter.GetMenuItem(itemQuit).GetTitle())
}

func TestTray_Present(t *testing.T) {
	t.Run("before ready", func(t *testing.T) {
		adapter := newMockAdapter()
		tray := NewWithAdapter(Config{}, adapter)

		tray.Present("Checking for update...")
		assert.Equal(t, "Checking for update...", tray.Message())
		assert.Equal(t, "Synergy: Checking for update...", adapter.GetTooltip())
	})

	t.Run("after ready", func(t *testing.T) {
		tray, adapter, _ := runTray(t, Config{})

		tray.Present("Downloading: 42%")
		assert.Equal(t, "Downloading: 42%", adapter.GetMenuItem(itemStatus).GetTitle())
		assert.Equal(t, "Synergy: Downloading: 42%", adapter.GetTooltip())
	})
}

func TestTray_Listener(t *testing.T) {
	adapter := newMockAdapter()
	tray := NewWithAdapter(Config{}, adapter)

	var got []updater.Event
	listener := tray.Listener(updater.ListenerFunc(func(ev updater.Event) {
		got = append(got, ev)
	}))

	listener.OnUpdateEvent(updater.UpdateError{Err: errors.New("offline")})
	assert.Equal(t, StatusError, tray.Status())
	assert.Equal(t, iconError, adapter.GetIcon())
	require.Len(t, got, 1)

	// A nil next listener only updates the icon.
	tray.Listener(nil).OnUpdateEvent(updater.CheckingForUpdate{})
	assert.Equal(t, StatusChecking, tray.Status())
}

func TestTray_Clicks(t *testing.T) {
	var checks, opens atomic.Int32
	_, adapter, _ := runTray(t, Config{
		OnCheck: func() { checks.Add(1) },
		OnOpen:  func() { opens.Add(1) },
	})

	adapter.GetMenuItem(itemCheck).Click()
	adapter.GetMenuItem(itemOpen).Click()
	adapter.GetMenuItem(itemCheck).Click()

	assert.Eventually(t, func() bool { return checks.Load() == 2 && opens.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTray_ReleaseNotes(t *testing.T) {
	urls := make(chan string, 1)
	tray, adapter, _ := runTray(t, Config{
		OnRelease: func(url string) { urls <- url },
	})
	item := adapter.GetMenuItem(itemRelease)

	// Hidden and inert without a known release.
	item.Click()
	select {
	case url := <-urls:
		t.Fatalf("unexpected release click: %s", url)
	case <-time.After(50 * time.Millisecond):
	}

	listener := tray.Listener(nil)
	listener.OnUpdateEvent(updater.UpdateAvailable{Info: updater.UpdateInfo{
		Version:    "1.2.3",
		ReleaseURL: "https://github.com/synergy-app/synergy/releases/tag/v1.2.3",
	}})
	assert.True(t, item.IsVisible())
	assert.Equal(t, "https://github.com/synergy-app/synergy/releases/tag/v1.2.3", tray.ReleaseURL())

	item.Click()
	select {
	case url := <-urls:
		assert.Equal(t, "https://github.com/synergy-app/synergy/releases/tag/v1.2.3", url)
	case <-time.After(time.Second):
		t.Fatal("release click not delivered")
	}

	listener.OnUpdateEvent(updater.UpdateNotAvailable{})
	assert.False(t, item.IsVisible())
	assert.Empty(t, tray.ReleaseURL())
}

func TestTray_SetReleaseURLBeforeReady(t *testing.T) {
	adapter := newMockAdapter()
	adapter.runBlocking = true
	tray := NewWithAdapter(Config{}, adapter)
	tray.SetReleaseURL("https://example.com/release")

	go tray.Run(context.Background())
	t.Cleanup(tray.Quit)

	require.Eventually(t, func() bool { return adapter.GetMenuItem(itemQuit) != nil }, time.Second, 5*time.Millisecond)
	assert.True(t, adapter.GetMenuItem(itemRelease).IsVisible())
}

func TestTray_QuitClick(t *testing.T) {
	var quitCalled atomic.Bool
	tray, adapter, stopped := runTray(t, Config{
		OnQuit: func() { quitCalled.Store(true) },
	})

	adapter.GetMenuItem(itemQuit).Click()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Quit click")
	}
	assert.True(t, quitCalled.Load())
	assert.True(t, adapter.IsQuitCalled())
	assert.True(t, adapter.WasOnExitCalled())

	select {
	case <-tray.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestTray_NilCallbacks(t *testing.T) {
	_, adapter, stopped := runTray(t, Config{})

	adapter.GetMenuItem(itemCheck).Click()
	adapter.GetMenuItem(itemRelease).Click()
	adapter.GetMenuItem(itemOpen).Click()
	adapter.GetMenuItem(itemQuit).Click()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestTray_CheckDisabledWithoutCallback(t *testing.T) {
	_, adapter, _ := runTray(t, Config{})

	check := adapter.GetMenuItem(itemCheck)
	assert.False(t, check.IsEnabled())
	assert.Equal(t, "Updates are disabled", check.GetTooltip())
	assert.True(t, adapter.GetMenuItem(itemOpen).IsEnabled())

	_, adapter, _ = runTray(t, Config{OnCheck: func() {}})
	assert.True(t, adapter.GetMenuItem(itemCheck).IsEnabled())
}

func TestTray_RunContextCancel(t *testing.T) {
	adapter := newMockAdapter()
	adapter.runBlocking = true
	tray := NewWithAdapter(Config{}, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		tray.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, adapter.IsQuitCalled())
}

func TestTray_RunNonBlockingAdapter(t *testing.T) {
	adapter := newMockAdapter()
	tray := NewWithAdapter(Config{}, adapter)

	tray.Run(context.Background())

	assert.True(t, adapter.WasOnReadyCalled())
	assert.True(t, adapter.WasOnExitCalled())
}

func TestTray_QuitIdempotent(t *testing.T) {
	adapter := newMockAdapter()
	tray := NewWithAdapter(Config{}, adapter)

	tray.Quit()
	tray.Quit()
	tray.onExit()

	assert.True(t, adapter.IsQuitCalled())
}

func TestMockAdapter_GetMenuItem_OutOfBounds(t *testing.T) {
	adapter := newMockAdapter()
	adapter.AddMenuItem("Item 1", "Tooltip 1")

	assert.NotNil(t, adapter.GetMenuItem(0))
	assert.Nil(t, adapter.GetMenuItem(-1))
	assert.Nil(t, adapter.GetMenuItem(1))
}
