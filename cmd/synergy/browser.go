package main

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that hands rawURL to the default
// browser on goos.
func browserCommand(goos, rawURL string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", rawURL)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command("xdg-open", rawURL)
	}
}

// openBrowser opens an http(s) URL in the default browser without waiting
// for it to exit.
func openBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	cmd := browserCommand(runtime.GOOS, u.String())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	return cmd.Process.Release()
}
