package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// PendingUpdate is a downloaded, verified archive waiting to be installed.
type PendingUpdate struct {
	Version     string `json:"version"`
	ArchivePath string `json:"archive_path"`
	Checksum    string `json:"checksum"`
}

// State persists update client state between runs.
type State struct {
	LastCheck           time.Time      `json:"last_check"`
	LastNotifiedVersion string         `json:"last_notified_version"`
	SkippedVersion      string         `json:"skipped_version"`
	Pending             *PendingUpdate `json:"pending,omitempty"`

	path string
	mu   sync.RWMutex
}

// LoadState loads state from path. A missing file yields empty state and a
// corrupted file is discarded.
func LoadState(path string) (*State, error) {
	s := &State{
		path: path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return &State{path: path}, nil
	}

	return s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Path returns the file backing this state.
func (s *State) Path() string {
	return s.path
}

// ShouldCheck returns true if enough time has passed since last check.
func (s *State) ShouldCheck(interval time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.LastCheck.IsZero() {
		return true
	}
	return time.Since(s.LastCheck) >= interval
}

// MarkChecked updates the last check time.
func (s *State) MarkChecked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastCheck = time.Now()
}

// MarkNotified records that the user was told about version.
func (s *State) MarkNotified(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastNotifiedVersion = version
}

// ShouldNotify returns true if the user has not been told about version yet.
func (s *State) ShouldNotify(version string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastNotifiedVersion != version
}

// SkipVersion marks a version as skipped.
func (s *State) SkipVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedVersion = version
}

// IsSkipped returns true if version was skipped.
func (s *State) IsSkipped(version string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SkippedVersion != "" && s.SkippedVersion == version
}

// SetPending records a staged archive.
func (s *State) SetPending(p PendingUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pending = &p
}

// PendingUpdate returns the staged archive, if any.
func (s *State) PendingUpdate() (PendingUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Pending == nil {
		return PendingUpdate{}, false
	}
	return *s.Pending, true
}

// ClearPending forgets the staged archive.
func (s *State) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pending = nil
}

// DefaultStatePath returns the default state file path.
// Unix: ~/.config/synergy/update-state.json
// macOS: ~/Library/Application Support/synergy/update-state.json
// Windows: %APPDATA%/synergy/update-state.json
func DefaultStatePath() string {
	return filepath.Join(configDir(), "synergy", "update-state.json")
}

// DefaultCacheDir is where downloaded archives are staged.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "synergy", "updates")
	}
	return filepath.Join(os.TempDir(), "synergy-updates")
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support")
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return dir
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config")
	}
}
