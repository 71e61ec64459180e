package updater

import (
	"errors"
	"fmt"
)

// Release lookup.
var (
	ErrNoUpdateAvailable = errors.New("no update available")
	ErrAssetNotFound     = errors.New("release asset not found")
	ErrInvalidVersion    = errors.New("invalid version")
	ErrNetworkError      = errors.New("network error")
	ErrRateLimited       = errors.New("github api rate limit exceeded")
)

// Download and verification.
var (
	ErrDownloadFailed   = errors.New("download failed")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Installation.
var (
	ErrInstallFailed   = errors.New("install failed")
	ErrRestoreFailed   = errors.New("restore of previous binary failed")
	ErrNoPendingUpdate = errors.New("no downloaded update pending")
)

// ErrCheckInProgress is returned by CheckForUpdatesAndNotify while another
// check runs.
var ErrCheckInProgress = errors.New("update check already in progress")

// InstallError describes a failed binary swap. It matches ErrInstallFailed,
// and also ErrRestoreFailed when the previous binary could not be put back.
type InstallError struct {
	// Step is the failing stage: locate, extract, backup or replace.
	Step   string
	Target string
	Err    error

	// RestoreErr is set when rolling back after a failed replace failed too.
	RestoreErr error
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("install %s: %s: %v", e.Target, e.Step, e.Err)
	if e.RestoreErr != nil {
		msg += fmt.Sprintf(" (restore: %v)", e.RestoreErr)
	}
	return msg
}

func (e *InstallError) Unwrap() []error {
	errs := []error{ErrInstallFailed, e.Err}
	if e.RestoreErr != nil {
		errs = append(errs, ErrRestoreFailed, e.RestoreErr)
	}
	return errs
}
