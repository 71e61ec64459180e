//go:build !windows

package updater

import "os"

// replaceBinary renames staged over target. The running process keeps the
// old inode open, so no file is moved aside.
func replaceBinary(staged, target string) error {
	return os.Rename(staged, target)
}

// leftovers lists the files an earlier install leaves next to target.
func leftovers(target string) []string {
	return []string{target + ".bak"}
}
