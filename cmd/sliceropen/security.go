package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// storageDirs mirrors the service's storage layout. The helper keeps its
// own copy of the whole validation, because its input arrives from an OS
// protocol dispatch that could be spoofed; a prior check by the service
// proves nothing here.
var storageDirs = []string{
	"Uploaded",
	"Pending",
	"ReadyToPrint",
	"Printing",
	"Completed",
	"PaidPickedUp",
	"thumbnails",
}

func systemDenylist() []string {
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

// validatePath canonicalizes candidate and returns it if it lies inside
// one of the status directories under base. Network-style paths and
// denylisted system directories are rejected outright.
func validatePath(base, candidate string, denylist []string) (string, error) {
	if candidate == "" {
		return "", fmt.Errorf("empty file path")
	}
	if isNetworkPath(candidate) {
		return "", fmt.Errorf("network paths are not allowed")
	}

	canonical, err := canonicalize(candidate)
	if err != nil {
		return "", err
	}
	if isNetworkPath(canonical) {
		return "", fmt.Errorf("network paths are not allowed")
	}

	lower := matchForm(canonical)
	for _, deny := range denylist {
		d := matchForm(deny)
		if lower == d || strings.HasPrefix(lower, d+"/") {
			return "", fmt.Errorf("access to system directory %s is not allowed", deny)
		}
	}

	baseCanonical, err := canonicalize(base)
	if err != nil {
		return "", fmt.Errorf("resolve storage base: %v", err)
	}
	for _, dir := range storageDirs {
		root := filepath.Join(baseCanonical, dir)
		if canonical == root || strings.HasPrefix(canonical, root+string(os.PathSeparator)) {
			return canonical, nil
		}
	}
	return "", fmt.Errorf("path not within authorized storage: %s", canonical)
}

// canonicalize makes the path absolute and resolves symlinks, falling
// back to resolving the parent when the leaf does not exist.
func canonicalize(p string) (string, error) {
	normalized := strings.ReplaceAll(p, `\`, string(os.PathSeparator))
	abs, err := filepath.Abs(filepath.Clean(normalized))
	if err != nil {
		return "", fmt.Errorf("resolve path: %v", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return abs, nil
}

func isNetworkPath(p string) bool {
	return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "//")
}

func matchForm(p string) string {
	return strings.TrimRight(strings.ToLower(strings.ReplaceAll(p, `\`, "/")), "/")
}
