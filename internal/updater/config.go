package updater

import (
	"time"
)

// Config holds updater configuration.
type Config struct {
	// Enabled turns on the check performed when the packaged app starts.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// AutoDownload downloads an available update right after the check.
	AutoDownload bool `yaml:"auto_download" json:"auto_download"`

	// AutoInstallOnAppQuit installs a downloaded update when the app exits.
	AutoInstallOnAppQuit bool `yaml:"auto_install_on_app_quit" json:"auto_install_on_app_quit"`

	// CheckInterval is how often the background checker runs. Zero disables it.
	CheckInterval time.Duration `yaml:"check_interval" json:"check_interval"`

	// Channel specifies which release channel to follow.
	Channel Channel `yaml:"channel" json:"channel"`

	// GitHubOwner is the GitHub repository owner.
	GitHubOwner string `yaml:"github_owner" json:"github_owner"`

	// GitHubRepo is the GitHub repository name.
	GitHubRepo string `yaml:"github_repo" json:"github_repo"`

	// StateFile is the path to the state file.
	StateFile string `yaml:"state_file" json:"state_file"`
}

// Channel specifies which release channel to follow.
type Channel string

const (
	// ChannelStable only includes stable releases.
	ChannelStable Channel = "stable"

	// ChannelPrerelease includes prereleases.
	ChannelPrerelease Channel = "prerelease"
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		AutoDownload:         true,
		AutoInstallOnAppQuit: true,
		Channel:              ChannelStable,
		GitHubOwner:          "synergy-app",
		GitHubRepo:           "synergy",
		StateFile:            DefaultStatePath(),
	}
}

// IsPrerelease returns true if the channel includes prereleases.
func (c Channel) IsPrerelease() bool {
	return c == ChannelPrerelease
}
