package shell

import "context"

// WindowOptions describes a window for the toolkit to create.
type WindowOptions struct {
	Name   string
	Title  string
	Width  int
	Height int

	// URL is loaded when set; otherwise HTML is rendered inline.
	URL  string
	HTML string

	AlwaysOnTop bool
	Resizable   bool
	Frameless   bool

	// DevTools allows the inspector to be opened in this window.
	DevTools bool
}

// Window is one toolkit window.
type Window interface {
	Name() string

	// Close asks the toolkit to close the window. Closing a destroyed
	// window is the caller's mistake; check IsDestroyed first.
	Close()

	// IsDestroyed reports whether the window has been closed.
	IsDestroyed() bool

	OpenDevTools()

	// OnClosed registers fn to run once the window closes for any reason.
	OnClosed(fn func())
}

// Toolkit is the windowing runtime the shell drives.
type Toolkit interface {
	NewWindow(opts WindowOptions) (Window, error)

	// WindowCount returns the number of open windows.
	WindowCount() int

	// Platform returns the GOOS-style platform name, e.g. "darwin".
	Platform() string

	// InstallDevTools enables the UI inspector for windows created later.
	InstallDevTools(ctx context.Context) error

	Quit()
}

// Presenter displays an update status message to the user.
type Presenter interface {
	Present(message string)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(message string)

// Present calls f(message).
func (f PresenterFunc) Present(message string) {
	f(message)
}

// Installer restarts the application into a downloaded update.
type Installer interface {
	QuitAndInstall(ctx context.Context) error
}

// UpdateClient is the part of the update client the shell drives.
type UpdateClient interface {
	Installer
	CheckForUpdatesAndNotify(ctx context.Context) error
	InstallOnQuit(ctx context.Context) error
	StartBackgroundChecker(ctx context.Context)
	StopBackgroundChecker()
}
