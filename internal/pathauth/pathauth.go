// Package pathauth validates that filesystem paths fall inside the fixed
// set of authorized, status-named storage roots. It guards every custody
// operation in the main process. The opener helper deliberately carries
// its own copy of this check rather than importing it, because the helper
// receives paths from an OS protocol dispatch it cannot trust.
package pathauth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotAuthorized is the security rejection. It is never downgraded:
// callers abort the request and log it.
var ErrNotAuthorized = errors.New("path not within authorized storage")

// StorageDirs is the fixed storage layout: one directory per status plus
// thumbnails, all siblings under the configured base.
var StorageDirs = []string{
	"Uploaded",
	"Pending",
	"ReadyToPrint",
	"Printing",
	"Completed",
	"PaidPickedUp",
	"thumbnails",
}

// DefaultDenylist lists operating-system directories that are rejected
// even if a storage root were misconfigured underneath one. Matching is
// case-insensitive and separator-agnostic.
func DefaultDenylist() []string {
	return []string{
		`C:\Windows`,
		`C:\Program Files`,
		`C:\Program Files (x86)`,
		`C:\Users\Administrator`,
		`C:\System Volume Information`,
		"/etc",
		"/proc",
		"/sys",
		"/dev",
		"/boot",
		"/root",
	}
}

// Authority validates candidate paths against its resolved roots.
type Authority struct {
	base     string
	roots    []string
	denylist []string
}

// New resolves the storage base and builds the authority. The base is
// canonicalized once at startup; roots are its status subdirectories.
func New(storageBase string, denylist []string) (*Authority, error) {
	if storageBase == "" {
		return nil, fmt.Errorf("%w: storage base not configured", ErrNotAuthorized)
	}
	base, err := filepath.Abs(storageBase)
	if err != nil {
		return nil, fmt.Errorf("resolve storage base: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	if denylist == nil {
		denylist = DefaultDenylist()
	}

	a := &Authority{base: base, denylist: denylist}
	for _, dir := range StorageDirs {
		a.roots = append(a.roots, filepath.Join(base, dir))
	}
	return a, nil
}

// Base returns the canonical storage base path.
func (a *Authority) Base() string {
	return a.base
}

// EnsureRoots creates every storage root that is absent.
func (a *Authority) EnsureRoots() error {
	for _, root := range a.roots {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("create storage root %s: %w", root, err)
		}
	}
	return nil
}

// Validate canonicalizes candidate and returns the canonical path if it
// lies under one of the authorized roots. Network-style paths and
// denylisted system directories are rejected regardless of the roots.
func (a *Authority) Validate(candidate string) (string, error) {
	canonical, err := Canonicalize(candidate)
	if err != nil {
		return "", err
	}
	if err := CheckDenylist(canonical, a.denylist); err != nil {
		return "", err
	}
	for _, root := range a.roots {
		if canonical == root || strings.HasPrefix(canonical, root+string(os.PathSeparator)) {
			return canonical, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotAuthorized, canonical)
}

// Canonicalize normalizes separators, makes the path absolute, and
// resolves symlinks (of the parent when the leaf does not exist yet).
// UNC/network-style prefixes are rejected on both the raw and canonical
// form, since authorization is only computed over local paths.
func Canonicalize(candidate string) (string, error) {
	if candidate == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotAuthorized)
	}
	if isNetworkPath(candidate) {
		return "", fmt.Errorf("%w: network paths are not allowed", ErrNotAuthorized)
	}

	normalized := strings.ReplaceAll(candidate, `\`, string(os.PathSeparator))
	abs, err := filepath.Abs(filepath.Clean(normalized))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	if isNetworkPath(abs) {
		return "", fmt.Errorf("%w: network paths are not allowed", ErrNotAuthorized)
	}
	return abs, nil
}

// CheckDenylist rejects canonical paths under any denylisted directory,
// case-insensitively and independent of separator style.
func CheckDenylist(canonical string, denylist []string) error {
	lower := normalizeForMatch(canonical)
	for _, deny := range denylist {
		d := normalizeForMatch(deny)
		if lower == d || strings.HasPrefix(lower, d+"/") {
			return fmt.Errorf("%w: %s is under denylisted directory %s", ErrNotAuthorized, canonical, deny)
		}
	}
	return nil
}

func isNetworkPath(p string) bool {
	return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "//")
}

func normalizeForMatch(p string) string {
	return strings.TrimRight(strings.ToLower(strings.ReplaceAll(p, `\`, "/")), "/")
}
