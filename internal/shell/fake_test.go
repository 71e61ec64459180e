package shell

import (
	"context"
	"errors"
	"sync"

	"github.com/synergy-app/synergy/internal/updater"
)

type fakeWindow struct {
	tk   *fakeToolkit
	opts WindowOptions

	mu         sync.Mutex
	destroyed  bool
	closeCalls int
	devTools   int
	onClosed   []func()
}

func (w *fakeWindow) Name() string { return w.opts.Name }

func (w *fakeWindow) Close() {
	w.mu.Lock()
	w.closeCalls++
	w.mu.Unlock()
	w.destroy()
}

// destroy simulates the toolkit tearing the window down, e.g. the user
// clicking the close button.
func (w *fakeWindow) destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	callbacks := append([]func(){}, w.onClosed...)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (w *fakeWindow) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

func (w *fakeWindow) OpenDevTools() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.devTools++
}

func (w *fakeWindow) OnClosed(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClosed = append(w.onClosed, fn)
}

func (w *fakeWindow) closes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCalls
}

type fakeToolkit struct {
	mu            sync.Mutex
	platform      string
	windows       []*fakeWindow
	quitCalls     int
	devToolsCalls int
	devToolsErr   error
	newWindowErr  error
}

func newFakeToolkit(platform string) *fakeToolkit {
	return &fakeToolkit{platform: platform}
}

func (tk *fakeToolkit) NewWindow(opts WindowOptions) (Window, error) {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	if tk.newWindowErr != nil {
		return nil, tk.newWindowErr
	}
	w := &fakeWindow{tk: tk, opts: opts}
	tk.windows = append(tk.windows, w)
	return w, nil
}

func (tk *fakeToolkit) WindowCount() int {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	n := 0
	for _, w := range tk.windows {
		if !w.IsDestroyed() {
			n++
		}
	}
	return n
}

func (tk *fakeToolkit) Platform() string { return tk.platform }

func (tk *fakeToolkit) InstallDevTools(ctx context.Context) error {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	tk.devToolsCalls++
	return tk.devToolsErr
}

func (tk *fakeToolkit) Quit() {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	tk.quitCalls++
}

func (tk *fakeToolkit) all() []*fakeWindow {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return append([]*fakeWindow(nil), tk.windows...)
}

func (tk *fakeToolkit) named(prefix string) []*fakeWindow {
	var out []*fakeWindow
	for _, w := range tk.all() {
		if len(w.opts.Name) >= len(prefix) && w.opts.Name[:len(prefix)] == prefix {
			out = append(out, w)
		}
	}
	return out
}

func (tk *fakeToolkit) quits() int {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return tk.quitCalls
}

type fakeUpdates struct {
	mu            sync.Mutex
	checks        int
	installs      int
	installOnQuit int
	started       int
	stopped       int
	checkErr      error
	installErr    error
	checked       chan struct{}

	// onCheck and onInstall run outside the lock when set.
	onCheck   func(ctx context.Context)
	onInstall func(ctx context.Context)
}

func newFakeUpdates() *fakeUpdates {
	return &fakeUpdates{checked: make(chan struct{}, 8)}
}

func (u *fakeUpdates) CheckForUpdatesAndNotify(ctx context.Context) error {
	u.mu.Lock()
	u.checks++
	err := u.checkErr
	onCheck := u.onCheck
	u.mu.Unlock()
	u.checked <- struct{}{}
	if onCheck != nil {
		onCheck(ctx)
	}
	return err
}

func (u *fakeUpdates) QuitAndInstall(ctx context.Context) error {
	u.mu.Lock()
	u.installs++
	err := u.installErr
	onInstall := u.onInstall
	u.mu.Unlock()
	if onInstall != nil {
		onInstall(ctx)
	}
	return err
}

func (u *fakeUpdates) InstallOnQuit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.installOnQuit++
	return nil
}

func (u *fakeUpdates) StartBackgroundChecker(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.started++
}

func (u *fakeUpdates) StopBackgroundChecker() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopped++
}

func (u *fakeUpdates) count(field *int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return *field
}

var errBoom = errors.New("boom")

// recordingPresenter collects presented messages.
type recordingPresenter struct {
	mu       sync.Mutex
	messages []string
}

func (p *recordingPresenter) Present(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
}

func (p *recordingPresenter) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

var _ UpdateClient = (*updater.Updater)(nil)
