package desktop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/synergy-app/synergy/internal/updater"
	"github.com/synergy-app/synergy/internal/version"
)

// ErrUpdatesDisabled is returned when the frontend asks for an update check
// and no update client is configured.
var ErrUpdatesDisabled = errors.New("update checks are disabled")

// UpdateChecker is the part of the update client the frontend may trigger.
type UpdateChecker interface {
	CheckForUpdatesAndNotify(ctx context.Context) error
	HasPendingUpdate() bool
}

// StatusResponse is the shell status reported to the frontend.
type StatusResponse struct {
	Version       string    `json:"version"`
	Platform      string    `json:"platform"`
	Uptime        string    `json:"uptime"`
	UpdatePending bool      `json:"update_pending"`
	Timestamp     time.Time `json:"timestamp"`
}

// Bindings is the Wails service exposed to the frontend when native
// bindings are enabled. Its exported methods are callable from JavaScript.
type Bindings struct {
	updates   UpdateChecker
	startTime time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBindings creates the frontend service. updates may be nil.
func NewBindings(updates UpdateChecker, logger *slog.Logger) *Bindings {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bindings{
		updates:   updates,
		startTime: time.Now(),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ServiceName implements the Wails service naming hook.
func (b *Bindings) ServiceName() string {
	return "synergy"
}

// ServiceStartup is called by Wails when the application starts.
func (b *Bindings) ServiceStartup(ctx context.Context, _ application.ServiceOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancel()
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.logger.Debug("Frontend bindings started")
	return nil
}

// ServiceShutdown is called by Wails when the application terminates.
func (b *Bindings) ServiceShutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancel()
	return nil
}

func (b *Bindings) context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

// Version returns build information.
func (b *Bindings) Version() version.Info {
	return version.GetInfo()
}

// Status returns the shell status.
func (b *Bindings) Status() StatusResponse {
	info := version.GetInfo()
	return StatusResponse{
		Version:       info.Version,
		Platform:      info.Platform,
		Uptime:        time.Since(b.startTime).Round(time.Second).String(),
		UpdatePending: b.updates != nil && b.updates.HasPendingUpdate(),
		Timestamp:     time.Now(),
	}
}

// CheckForUpdates runs an update check. Progress is reported through the
// status popups; a check already in progress is not an error.
func (b *Bindings) CheckForUpdates() error {
	if b.updates == nil {
		return ErrUpdatesDisabled
	}
	err := b.updates.CheckForUpdatesAndNotify(b.context())
	if errors.Is(err, updater.ErrCheckInProgress) {
		return nil
	}
	return err
}
