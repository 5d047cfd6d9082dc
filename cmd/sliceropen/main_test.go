package main

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_NoArgsShowsHelp(t *testing.T) {
	if got := run(nil); got != 0 {
		t.Errorf("run() = %d, want 0", got)
	}
}

func TestRun_ParseErrorLogged(t *testing.T) {
	base := newStorageTree(t)

	if got := run([]string{"-storage", base, "not-a-protocol-url"}); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
	assertLoggedOutcome(t, base, "parse_error")
}

func TestRun_SecurityRejectionLogged(t *testing.T) {
	base := newStorageTree(t)

	raw := "3dprint://open?file=" + url.QueryEscape("/etc/passwd")
	if got := run([]string{"-storage", base, raw}); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
	assertLoggedOutcome(t, base, "security_rejected")
}

func TestRun_MissingFileLogged(t *testing.T) {
	base := newStorageTree(t)

	missing := filepath.Join(base, "Uploaded", "ghost.stl")
	raw := "3dprint://open?file=" + url.QueryEscape(missing)
	if got := run([]string{"-storage", base, raw}); got != 1 {
		t.Errorf("run() = %d, want 1", got)
	}
	assertLoggedOutcome(t, base, "file_missing")
}

func assertLoggedOutcome(t *testing.T, base, outcome string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, "logs", "opener.log"))
	if err != nil {
		t.Fatalf("attempt log missing: %v", err)
	}
	if !strings.Contains(string(data), "\t"+outcome+"\t") {
		t.Errorf("attempt log %q does not record %s", data, outcome)
	}
}

func TestAttemptLog_Format(t *testing.T) {
	dir := t.TempDir()
	l := newAttemptLog(filepath.Join(dir, "opener.log"))
	stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return stamp }

	l.record("success", "/srv/storage/Uploaded/model.stl", nil)

	data, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "2026-03-01T09:30:00Z\tsuccess\t/srv/storage/Uploaded/model.stl\t\n"
	if string(data) != want {
		t.Errorf("log line = %q, want %q", data, want)
	}
}

func TestAttemptLog_Appends(t *testing.T) {
	dir := t.TempDir()
	l := newAttemptLog(filepath.Join(dir, "opener.log"))

	l.record("parse_error", "bad-url", os.ErrInvalid)
	l.record("success", "/srv/storage/Uploaded/model.stl", nil)

	data, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "parse_error") || !strings.Contains(lines[1], "success") {
		t.Errorf("log lines = %v", lines)
	}
}
