package updater

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/synergy-app/synergy/internal/logging"
)

// BinaryType names the executable inside a release archive.
type BinaryType string

// BinaryTypeDesktop is the desktop shell binary.
const BinaryTypeDesktop BinaryType = "synergy"

// BinaryName returns the file name of the executable on this platform.
func (b BinaryType) BinaryName() string {
	if b == "" || runtime.GOOS != "windows" {
		return string(b)
	}
	return string(b) + ".exe"
}

// Installer swaps an executable for the one in a release archive.
type Installer struct {
	binary BinaryType

	// target is the executable to replace; empty means the running one.
	target string
}

// NewInstaller creates an Installer replacing the running executable.
func NewInstaller(binary BinaryType) *Installer {
	return &Installer{binary: binary}
}

// Target returns the resolved path of the executable being replaced.
func (i *Installer) Target() (string, error) {
	if i.target != "" {
		return i.target, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

// Install replaces the target with the binary from archivePath. The old
// binary is kept as <target>.bak and put back if the replace step fails.
func (i *Installer) Install(ctx context.Context, archivePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := i.Target()
	if err != nil {
		return &InstallError{Step: "locate", Target: i.binary.BinaryName(), Err: err}
	}

	staged := target + ".new"
	if err := i.stage(archivePath, staged); err != nil {
		os.Remove(staged)
		return &InstallError{Step: "extract", Target: target, Err: err}
	}

	backup := target + ".bak"
	if err := snapshot(target, backup); err != nil {
		os.Remove(staged)
		return &InstallError{Step: "backup", Target: target, Err: err}
	}

	if err := replaceBinary(staged, target); err != nil {
		os.Remove(staged)
		ie := &InstallError{Step: "replace", Target: target, Err: err}
		if rerr := os.Rename(backup, target); rerr != nil {
			ie.RestoreErr = rerr
		}
		logging.Error("Binary replace failed", "target", target, "error", ie)
		return ie
	}

	logging.Info("Binary replaced", "target", target, "backup", backup)
	return nil
}

// stage writes the archived binary to dest as an executable file.
func (i *Installer) stage(archivePath, dest string) error {
	src, err := openMember(archivePath, i.binary.BinaryName())
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	// OpenFile's mode is filtered by the umask.
	return os.Chmod(dest, 0755)
}

// archiveMember is a file read out of an archive; closing it closes the
// archive too.
type archiveMember struct {
	io.Reader
	closers []io.Closer
}

func (m *archiveMember) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openMember opens the regular file named name, at any depth, inside a
// .tar.gz, .tgz or .zip archive.
func openMember(archivePath, name string) (io.ReadCloser, error) {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return openZipMember(archivePath, name)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return openTarMember(archivePath, name)
	default:
		return nil, fmt.Errorf("unsupported archive %s", filepath.Base(archivePath))
	}
}

func openTarMember(archivePath, name string) (io.ReadCloser, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", filepath.Base(archivePath), err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err != nil {
			gz.Close()
			f.Close()
			if err == io.EOF {
				return nil, fmt.Errorf("%s not in %s", name, filepath.Base(archivePath))
			}
			return nil, fmt.Errorf("read %s: %w", filepath.Base(archivePath), err)
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return &archiveMember{Reader: tr, closers: []io.Closer{f, gz}}, nil
		}
	}
}

func openZipMember(archivePath, name string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(archivePath), err)
	}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || filepath.Base(zf.Name) != name {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			zr.Close()
			return nil, err
		}
		return &archiveMember{Reader: rc, closers: []io.Closer{zr, rc}}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("%s not in %s", name, filepath.Base(archivePath))
}

// snapshot makes dst a copy of src, as a hard link when the filesystem
// allows it.
func snapshot(src, dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	if os.Link(src, dst) == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
