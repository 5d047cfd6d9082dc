// Package auditor runs a read-only sweep over all jobs, checking that
// each file still lives in the directory its status demands and flagging
// confirmation windows that lapsed while a job sat in PENDING. It only
// logs; reconciliation is an operator decision.
package auditor

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fabworks/printflow/internal/domain"
)

// Auditor polls the record store and reports custody divergence.
type Auditor struct {
	repo     domain.JobRepository
	interval time.Duration
	now      func() time.Time
}

// New creates an auditor sweeping every interval.
func New(repo domain.JobRepository, interval time.Duration) *Auditor {
	return &Auditor{repo: repo, interval: interval, now: time.Now}
}

// Run sweeps until the context is cancelled.
func (a *Auditor) Run(ctx context.Context) {
	log.Printf("custody auditor started, sweeping every %s", a.interval)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("custody auditor shutting down")
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of findings.
func (a *Auditor) Sweep(ctx context.Context) int {
	jobs, err := a.repo.List(ctx, "")
	if err != nil {
		log.Printf("audit: list jobs: %v", err)
		return 0
	}

	findings := 0
	now := a.now().UTC()
	for i := range jobs {
		job := &jobs[i]

		if dir := filepath.Base(filepath.Dir(job.FilePath)); dir != job.Status.Dir() {
			log.Printf("audit: job %s: file directory %q does not match status %s (%q)",
				job.ID, dir, job.Status, job.Status.Dir())
			findings++
		}
		if _, err := os.Stat(job.FilePath); err != nil {
			log.Printf("audit: job %s: file missing at %s: %v", job.ID, job.FilePath, err)
			findings++
		}
		if job.Status == domain.StatusPending &&
			job.ConfirmTokenExpires != nil && now.After(*job.ConfirmTokenExpires) {
			log.Printf("audit: job %s: confirmation window lapsed at %s, still PENDING",
				job.ID, job.ConfirmTokenExpires.Format(time.RFC3339))
			findings++
		}
	}
	return findings
}
