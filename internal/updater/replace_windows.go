//go:build windows

package updater

import (
	"errors"
	"fmt"
	"os"
)

// replaceBinary moves the running image to <target>.old, which Windows
// allows while it is locked, then moves staged into its place.
func replaceBinary(staged, target string) error {
	aside := target + ".old"
	if err := os.Remove(aside); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", aside, err)
	}
	if err := os.Rename(target, aside); err != nil {
		return fmt.Errorf("move running binary aside: %w", err)
	}
	if err := os.Rename(staged, target); err != nil {
		return errors.Join(err, os.Rename(aside, target))
	}
	return nil
}

// leftovers lists the files an earlier install leaves next to target.
func leftovers(target string) []string {
	return []string{target + ".bak", target + ".old"}
}
