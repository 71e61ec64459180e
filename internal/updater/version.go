package updater

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed release tag such as v1.2.3 or 1.2.3-rc.1.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses "v1.2.3", "1.2", "1.2.3-beta.1" or "1.2.3+build".
// Build metadata is treated like a prerelease suffix.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")

	var v Version
	mainPart := s
	if idx := strings.IndexAny(s, "-+"); idx != -1 {
		mainPart = s[:idx]
		v.Prerelease = s[idx+1:]
	}

	parts := strings.Split(mainPart, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %s", ErrInvalidVersion, s)
	}

	fields := []*int{&v.Major, &v.Minor, &v.Patch}
	names := []string{"major", "minor", "patch"}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: invalid %s version in %q", ErrInvalidVersion, names[i], s)
		}
		*fields[i] = n
	}

	return v, nil
}

// String returns the version without a leading 'v'.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns -1, 0 or 1. A release sorts after its prereleases;
// prerelease suffixes compare lexically.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case v.Prerelease == other.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1
	case other.Prerelease == "":
		return -1
	default:
		return cmp.Compare(v.Prerelease, other.Prerelease)
	}
}

// IsNewerThan returns true if v is newer than other.
func (v Version) IsNewerThan(other Version) bool {
	return v.Compare(other) > 0
}

// IsPrerelease returns true if this is a prerelease version.
func (v Version) IsPrerelease() bool {
	return v.Prerelease != ""
}
