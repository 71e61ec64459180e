package updater

import (
	"fmt"
	"os"
	"os/exec"
)

// Relaunch starts a detached copy of the current executable with the same
// arguments. The caller is expected to quit afterwards.
func Relaunch() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = os.Environ()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("relaunch %s: %w", exe, err)
	}

	return cmd.Process.Release()
}
