package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// JobRepository is the driven port for job persistence.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, status Status) ([]Job, error)

	// UpdateTransition commits the job's full mutable state, guarded by an
	// optimistic check that the stored status still equals from. Returns
	// ErrStaleStatus if another writer got there first.
	UpdateTransition(ctx context.Context, job *Job, from Status) error
}

// StoreRequest carries the inputs FileCustody needs for a first store.
type StoreRequest struct {
	StudentName      string
	PrintMethod      string
	Color            string
	JobID            string
	OriginalFilename string
}

// FileCustody is the driven port for the physical file's location.
type FileCustody interface {
	// Store writes content under the Uploaded root with a derived display
	// name and returns (displayName, path).
	Store(content io.Reader, req StoreRequest) (string, string, error)

	// Move renames the file from the directory for from to the directory
	// for to, keeping displayName unchanged.
	Move(currentPath string, from, to Status, displayName string) (string, error)
}

// TokenService mints and decodes confirmation capabilities.
type TokenService interface {
	// Issue returns a signed token bound to jobID and its expiry.
	Issue(jobID string) (string, time.Time, error)

	// Decode verifies the signature and signed age and returns the job id
	// the token was minted for.
	Decode(token string) (string, error)
}

// CostCalculator prices a job from printer and weight.
type CostCalculator interface {
	Compute(printerKey string, weightGrams float64) (decimal.Decimal, error)
}

// Notifier is the driven port for student-facing mail. Failures are
// logged by callers and never undo a committed transition.
type Notifier interface {
	JobApproved(ctx context.Context, job *Job) error
	JobRejected(ctx context.Context, job *Job) error
	JobConfirmed(ctx context.Context, job *Job) error
}
