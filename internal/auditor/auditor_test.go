package auditor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fabworks/printflow/internal/domain"
)

// listRepo is a read-only stub; the auditor only ever calls List.
type listRepo struct {
	jobs []domain.Job
	err  error
}

func (r *listRepo) Create(context.Context, *domain.Job) error { return nil }
func (r *listRepo) Get(context.Context, string) (*domain.Job, error) {
	return nil, domain.ErrJobNotFound
}
func (r *listRepo) UpdateTransition(context.Context, *domain.Job, domain.Status) error {
	return nil
}
func (r *listRepo) List(context.Context, domain.Status) ([]domain.Job, error) {
	return r.jobs, r.err
}

func writeJobFile(t *testing.T, base, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(base, dir, name)
	if err := os.WriteFile(path, []byte("solid model"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestSweep_Clean(t *testing.T) {
	base := t.TempDir()
	expires := time.Now().UTC().Add(time.Hour)

	repo := &listRepo{jobs: []domain.Job{
		{
			ID:       "job-1",
			Status:   domain.StatusUploaded,
			FilePath: writeJobFile(t, base, "Uploaded", "a.stl"),
		},
		{
			ID:                  "job-2",
			Status:              domain.StatusPending,
			FilePath:            writeJobFile(t, base, "Pending", "b.stl"),
			ConfirmTokenExpires: &expires,
		},
	}}

	if got := New(repo, time.Minute).Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d findings on a clean tree, want 0", got)
	}
}

func TestSweep_DirectoryMismatch(t *testing.T) {
	base := t.TempDir()

	// Record says PENDING but the file never left Uploaded.
	repo := &listRepo{jobs: []domain.Job{{
		ID:       "job-1",
		Status:   domain.StatusPending,
		FilePath: writeJobFile(t, base, "Uploaded", "a.stl"),
	}}}

	if got := New(repo, time.Minute).Sweep(context.Background()); got != 1 {
		t.Errorf("Sweep() = %d findings, want 1", got)
	}
}

func TestSweep_MissingFile(t *testing.T) {
	base := t.TempDir()

	repo := &listRepo{jobs: []domain.Job{{
		ID:       "job-1",
		Status:   domain.StatusUploaded,
		FilePath: filepath.Join(base, "Uploaded", "ghost.stl"),
	}}}

	if got := New(repo, time.Minute).Sweep(context.Background()); got != 1 {
		t.Errorf("Sweep() = %d findings, want 1", got)
	}
}

func TestSweep_LapsedConfirmationWindow(t *testing.T) {
	base := t.TempDir()
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := &listRepo{jobs: []domain.Job{{
		ID:                  "job-1",
		Status:              domain.StatusPending,
		FilePath:            writeJobFile(t, base, "Pending", "a.stl"),
		ConfirmTokenExpires: &expires,
	}}}

	a := New(repo, time.Minute)
	a.now = func() time.Time { return expires.Add(time.Hour) }
	if got := a.Sweep(context.Background()); got != 1 {
		t.Errorf("Sweep() = %d findings, want 1", got)
	}

	// Before the window closes the same job is clean.
	a.now = func() time.Time { return expires.Add(-time.Hour) }
	if got := a.Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() before expiry = %d findings, want 0", got)
	}
}

func TestSweep_ListError(t *testing.T) {
	repo := &listRepo{err: context.DeadlineExceeded}
	if got := New(repo, time.Minute).Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d findings on a failed list, want 0", got)
	}
}

func TestSweep_RejectedStaysInUploaded(t *testing.T) {
	base := t.TempDir()

	// REJECTED files deliberately remain in Uploaded.
	repo := &listRepo{jobs: []domain.Job{{
		ID:       "job-1",
		Status:   domain.StatusRejected,
		FilePath: writeJobFile(t, base, "Uploaded", "a.stl"),
	}}}

	if got := New(repo, time.Minute).Sweep(context.Background()); got != 0 {
		t.Errorf("Sweep() = %d findings, want 0", got)
	}
}
