package updater

// Event is one notification from the update client. The set of variants is
// closed: CheckingForUpdate, UpdateAvailable, UpdateNotAvailable,
// UpdateError, DownloadProgress, UpdateDownloaded and OtherEvent.
type Event interface {
	// Name is the wire name of the event, e.g. "update-available".
	Name() string

	updateEvent()
}

// Event names.
const (
	EventCheckingForUpdate  = "checking-for-update"
	EventUpdateAvailable    = "update-available"
	EventUpdateNotAvailable = "update-not-available"
	EventError              = "error"
	EventDownloadProgress   = "download-progress"
	EventUpdateDownloaded   = "update-downloaded"

	// Names carried by OtherEvent.
	EventUpdateCancelled = "update-cancelled"
	EventUpdateSkipped   = "update-skipped"
)

// CheckingForUpdate is emitted when a check starts.
type CheckingForUpdate struct{}

// UpdateAvailable is emitted when a newer release exists.
type UpdateAvailable struct {
	Info UpdateInfo
}

// UpdateNotAvailable is emitted when the running version is current.
// Info carries only the current version.
type UpdateNotAvailable struct {
	Info UpdateInfo
}

// UpdateError is emitted when a check, download or install fails.
type UpdateError struct {
	Err error
}

// DownloadProgress is emitted while the update archive downloads.
type DownloadProgress struct {
	BytesPerSecond int64
	Percent        float64
	Transferred    int64
	Total          int64
}

// UpdateDownloaded is emitted once the archive is downloaded, verified and staged.
type UpdateDownloaded struct {
	Info UpdateInfo
}

// OtherEvent covers any notification outside the six named kinds,
// such as a cancelled download or a skipped version.
type OtherEvent struct {
	Type   string
	Detail string
}

func (CheckingForUpdate) Name() string  { return EventCheckingForUpdate }
func (UpdateAvailable) Name() string    { return EventUpdateAvailable }
func (UpdateNotAvailable) Name() string { return EventUpdateNotAvailable }
func (UpdateError) Name() string        { return EventError }
func (DownloadProgress) Name() string   { return EventDownloadProgress }
func (UpdateDownloaded) Name() string   { return EventUpdateDownloaded }
func (e OtherEvent) Name() string       { return e.Type }

func (CheckingForUpdate) updateEvent()  {}
func (UpdateAvailable) updateEvent()    {}
func (UpdateNotAvailable) updateEvent() {}
func (UpdateError) updateEvent()        {}
func (DownloadProgress) updateEvent()   {}
func (UpdateDownloaded) updateEvent()   {}
func (OtherEvent) updateEvent()         {}

// Listener receives update events. Calls happen on the goroutine running
// the check or download.
type Listener interface {
	OnUpdateEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

// OnUpdateEvent calls f(ev).
func (f ListenerFunc) OnUpdateEvent(ev Event) {
	f(ev)
}
