// Package custody owns the physical location of job files. A job's file
// lives in exactly one status directory at a time; every move keeps the
// display name and changes only the directory.
package custody

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fabworks/printflow/internal/domain"
	"github.com/fabworks/printflow/internal/naming"
	"github.com/fabworks/printflow/internal/pathauth"
)

// Custody implements domain.FileCustody over the status directory layout,
// validating every computed path through the path authority.
type Custody struct {
	auth *pathauth.Authority
}

// New creates a Custody rooted at the authority's storage base.
func New(auth *pathauth.Authority) *Custody {
	return &Custody{auth: auth}
}

// Store derives the display name and writes content into the Uploaded
// directory, creating it if absent. A pre-existing file under the derived
// name indicates a naming collision and is refused.
func (c *Custody) Store(content io.Reader, req domain.StoreRequest) (string, string, error) {
	display := naming.Derive(req.StudentName, req.PrintMethod, req.Color, req.JobID, req.OriginalFilename)

	dir := filepath.Join(c.auth.Base(), domain.StatusUploaded.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("%w: create %s: %v", domain.ErrStorageUnavailable, dir, err)
	}

	path, err := c.auth.Validate(filepath.Join(dir, display))
	if err != nil {
		return "", "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", "", fmt.Errorf("%w: %s already exists, display name collision", domain.ErrStorageUnavailable, path)
		}
		return "", "", fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("%w: write %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("%w: close %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	return display, path, nil
}

// Move renames the file from its current path into the directory for to,
// keeping displayName unchanged. The destination directory is created if
// absent. An existing file at the destination is never overwritten; it
// means two jobs derived the same display name and needs investigation.
func (c *Custody) Move(currentPath string, from, to domain.Status, displayName string) (string, error) {
	src, err := c.auth.Validate(currentPath)
	if err != nil {
		return "", err
	}

	destDir := filepath.Join(c.auth.Base(), to.Dir())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", domain.ErrStorageUnavailable, destDir, err)
	}
	dst, err := c.auth.Validate(filepath.Join(destDir, displayName))
	if err != nil {
		return "", err
	}
	if src == dst {
		return dst, nil
	}

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrSourceMissing, src)
		}
		return "", fmt.Errorf("%w: stat %s: %v", domain.ErrMoveFailed, src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%w: destination %s already exists", domain.ErrMoveFailed, dst)
	}

	// Rename only. A cross-device move can leave a partial copy behind;
	// keeping it a single rename makes that failure loud instead.
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("%w: rename %s to %s: %v", domain.ErrMoveFailed, src, dst, err)
	}
	return dst, nil
}
