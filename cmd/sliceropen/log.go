package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// attemptLog appends one line per open attempt to a durable file. Logging
// must never block an outcome report, so write failures only warn.
type attemptLog struct {
	path string
	now  func() time.Time
}

func newAttemptLog(path string) *attemptLog {
	return &attemptLog{path: path, now: time.Now}
}

// record appends: timestamp, outcome class, decoded path, error detail.
func (l *attemptLog) record(outcome, path string, cause error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n",
		l.now().UTC().Format(time.RFC3339), outcome, path, detail)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create log directory: %v\n", err)
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open attempt log: %v\n", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot write attempt log: %v\n", err)
	}
}
