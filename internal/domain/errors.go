package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrValidation         = errors.New("validation failure")
	ErrTokenInvalid       = errors.New("confirmation link is invalid or has expired")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSourceMissing      = errors.New("source file missing")
	ErrMoveFailed         = errors.New("file move failed")
	ErrUnknownPrinter     = errors.New("unknown printer")

	// ErrStaleStatus is returned by the repository when an optimistic
	// transition commit finds the job's status already changed.
	ErrStaleStatus = errors.New("status changed concurrently")

	// ErrCustodyDiverged means a record commit failed after the file was
	// already moved and the compensating move back also failed. The job's
	// record and file location disagree until an operator reconciles them.
	ErrCustodyDiverged = errors.New("record and file location diverged, manual reconciliation required")
)

// InvalidTransitionError reports a transition attempted from the wrong
// state. It matches ErrInvalidTransition under errors.Is.
type InvalidTransitionError struct {
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: job is %s, requested %s", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
