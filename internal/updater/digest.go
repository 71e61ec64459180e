package updater

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// fileSHA256 returns the lowercase hex SHA-256 of the file at path.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyFile checks the file at path against a hex SHA-256 digest. Case
// and surrounding whitespace in want are ignored.
func verifyFile(path, want string) error {
	got, err := fileSHA256(path)
	if err != nil {
		return err
	}
	if want = strings.ToLower(strings.TrimSpace(want)); got != want {
		return fmt.Errorf("%w: %s: want %s, got %s", ErrChecksumMismatch, path, want, got)
	}
	return nil
}

// lookupChecksum scans sha256sum output ("<digest>  <name>", optionally
// "*<name>" for binary mode) for name and returns its digest. Lines without
// a well-formed digest are skipped.
func lookupChecksum(r io.Reader, name string) (string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 || strings.TrimPrefix(fields[1], "*") != name {
			continue
		}
		if digest := strings.ToLower(fields[0]); isDigest(digest) {
			return digest, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", checksumsAsset, err)
	}
	return "", fmt.Errorf("%w: no checksum for %s", ErrAssetNotFound, name)
}

func isDigest(s string) bool {
	if len(s) != 2*sha256.Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
