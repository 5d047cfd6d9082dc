package domain

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Actor tags recorded in last_updated_by.
const (
	ActorStaff   = "staff"
	ActorStudent = "student"
)

// SubmissionInput carries the student-entered fields for a new job.
type SubmissionInput struct {
	StudentName               string `validate:"required"`
	StudentEmail              string `validate:"required,email"`
	Discipline                string `validate:"required"`
	ClassNumber               string `validate:"required"`
	PrintMethod               string `validate:"required"`
	Color                     string `validate:"required"`
	OriginalFilename          string `validate:"required"`
	ScaledCorrectly           bool
	AcknowledgedMinimumCharge bool `validate:"required"`
}

// ApproveInput carries the staff-entered pricing fields.
type ApproveInput struct {
	Printer     string  `validate:"required"`
	Material    string  `validate:"required"`
	WeightGrams float64 `validate:"required,gt=0"`
	TimeHours   float64 `validate:"required,gt=0"`
}

// StateMachine orchestrates job transitions. Every transition moves the
// job's file (where the table requires it) and commits the record under
// an optimistic status check, so record status and file location never
// observably disagree.
type StateMachine struct {
	repo     JobRepository
	files    FileCustody
	tokens   TokenService
	pricing  CostCalculator
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStateMachine creates a StateMachine with all collaborators injected.
func NewStateMachine(repo JobRepository, files FileCustody, tokens TokenService, pricing CostCalculator, notifier Notifier) *StateMachine {
	return &StateMachine{
		repo:     repo,
		files:    files,
		tokens:   tokens,
		pricing:  pricing,
		notifier: notifier,
		validate: validator.New(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockJob serializes transitions on a single job within this process.
// Cross-process writers are caught by the repository's optimistic check.
func (s *StateMachine) lockJob(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Create stores the uploaded file and records a new job in UPLOADED.
func (s *StateMachine) Create(ctx context.Context, in SubmissionInput, content io.Reader) (*Job, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	id := uuid.NewString()
	display, path, err := s.files.Store(content, StoreRequest{
		StudentName:      in.StudentName,
		PrintMethod:      in.PrintMethod,
		Color:            in.Color,
		JobID:            id,
		OriginalFilename: in.OriginalFilename,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &Job{
		ID:                        id,
		StudentName:               in.StudentName,
		StudentEmail:              in.StudentEmail,
		Discipline:                in.Discipline,
		ClassNumber:               in.ClassNumber,
		OriginalFilename:          in.OriginalFilename,
		DisplayName:               display,
		FilePath:                  path,
		Status:                    StatusUploaded,
		Printer:                   in.PrintMethod,
		Color:                     in.Color,
		ScaledCorrectly:           in.ScaledCorrectly,
		AcknowledgedMinimumCharge: in.AcknowledgedMinimumCharge,
		CreatedAt:                 now,
		UpdatedAt:                 now,
		LastUpdatedBy:             ActorStudent,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		log.Printf("job %s: record create failed, file left in %s: %v", id, path, err)
		return nil, fmt.Errorf("create job record: %w", err)
	}
	return job, nil
}

// Get retrieves a job by id.
func (s *StateMachine) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves jobs, optionally filtered by status (empty = all).
func (s *StateMachine) List(ctx context.Context, status Status) ([]Job, error) {
	return s.repo.List(ctx, status)
}

// Approve prices the job, mints its confirmation token, and moves it
// UPLOADED -> PENDING. Only valid from UPLOADED.
func (s *StateMachine) Approve(ctx context.Context, id string, in ApproveInput) (*Job, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	unlock := s.lockJob(id)
	defer unlock()

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusUploaded {
		return nil, &InvalidTransitionError{Current: job.Status, Requested: StatusPending}
	}

	cost, err := s.pricing.Compute(in.Printer, in.WeightGrams)
	if err != nil {
		return nil, err
	}
	token, expires, err := s.tokens.Issue(job.ID)
	if err != nil {
		return nil, fmt.Errorf("mint confirmation token: %w", err)
	}

	updated := *job
	updated.Status = StatusPending
	updated.Printer = in.Printer
	updated.Material = in.Material
	updated.WeightGrams = in.WeightGrams
	updated.TimeHours = in.TimeHours
	updated.CostUSD = cost
	updated.ConfirmToken = token
	updated.ConfirmTokenExpires = &expires
	s.stamp(&updated, ActorStaff)

	if err := s.commitMove(ctx, &updated, StatusUploaded, StatusPending); err != nil {
		return nil, err
	}

	if err := s.notifier.JobApproved(ctx, &updated); err != nil {
		log.Printf("job %s: approval notification failed: %v", updated.ID, err)
	}
	return &updated, nil
}

// Reject records the rejection reasons and ends the workflow. The file
// stays in Uploaded. Only valid from UPLOADED.
func (s *StateMachine) Reject(ctx context.Context, id string, reasons []string) (*Job, error) {
	cleaned := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one rejection reason is required", ErrValidation)
	}

	unlock := s.lockJob(id)
	defer unlock()

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusUploaded {
		return nil, &InvalidTransitionError{Current: job.Status, Requested: StatusRejected}
	}

	updated := *job
	updated.Status = StatusRejected
	updated.RejectReasons = cleaned
	s.stamp(&updated, ActorStaff)

	if err := s.repo.UpdateTransition(ctx, &updated, StatusUploaded); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, s.staleTransition(ctx, id, StatusRejected)
		}
		return nil, fmt.Errorf("commit rejection: %w", err)
	}

	if err := s.notifier.JobRejected(ctx, &updated); err != nil {
		log.Printf("job %s: rejection notification failed: %v", updated.ID, err)
	}
	return &updated, nil
}

// Confirm redeems a student confirmation token and moves the job
// PENDING -> READYTOPRINT. Every verification failure is reported as the
// same ErrTokenInvalid so an unauthenticated caller learns nothing about
// which check failed.
func (s *StateMachine) Confirm(ctx context.Context, token string) (*Job, error) {
	jobID, err := s.tokens.Decode(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	unlock := s.lockJob(jobID)
	defer unlock()

	job, err := s.repo.Get(ctx, jobID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	now := s.now().UTC()
	switch {
	case job.Status != StatusPending:
		return nil, ErrTokenInvalid
	case job.ConfirmToken == "" || subtle.ConstantTimeCompare([]byte(job.ConfirmToken), []byte(token)) != 1:
		return nil, ErrTokenInvalid
	case job.ConfirmTokenExpires == nil || now.After(*job.ConfirmTokenExpires):
		return nil, ErrTokenInvalid
	}

	updated := *job
	updated.Status = StatusReadyToPrint
	updated.StudentConfirmed = true
	confirmedAt := now
	updated.StudentConfirmedAt = &confirmedAt
	s.stamp(&updated, ActorStudent)

	if err := s.commitMove(ctx, &updated, StatusPending, StatusReadyToPrint); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if err := s.notifier.JobConfirmed(ctx, &updated); err != nil {
		log.Printf("job %s: confirmation notification failed: %v", updated.ID, err)
	}
	return &updated, nil
}

// MarkPrinting moves the job READYTOPRINT -> PRINTING.
func (s *StateMachine) MarkPrinting(ctx context.Context, id string) (*Job, error) {
	return s.advance(ctx, id, StatusReadyToPrint, StatusPrinting)
}

// MarkCompleted moves the job PRINTING -> COMPLETED.
func (s *StateMachine) MarkCompleted(ctx context.Context, id string) (*Job, error) {
	return s.advance(ctx, id, StatusPrinting, StatusCompleted)
}

// MarkPickedUp moves the job COMPLETED -> PAIDPICKEDUP.
func (s *StateMachine) MarkPickedUp(ctx context.Context, id string) (*Job, error) {
	return s.advance(ctx, id, StatusCompleted, StatusPaidPickedUp)
}

// advance performs a staff tail transition: status change plus the
// matching file move, no further preconditions.
func (s *StateMachine) advance(ctx context.Context, id string, from, to Status) (*Job, error) {
	unlock := s.lockJob(id)
	defer unlock()

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != from {
		return nil, &InvalidTransitionError{Current: job.Status, Requested: to}
	}

	updated := *job
	updated.Status = to
	s.stamp(&updated, ActorStaff)

	if err := s.commitMove(ctx, &updated, from, to); err != nil {
		return nil, err
	}
	return &updated, nil
}

// commitMove moves the job's file from's directory to to's, then commits
// the record under the optimistic status guard. A failed move aborts
// before any record change. A failed commit triggers a compensating move
// back; if that also fails the two representations have diverged and the
// error says so.
func (s *StateMachine) commitMove(ctx context.Context, job *Job, from, to Status) error {
	oldPath := job.FilePath
	newPath, err := s.files.Move(oldPath, from, to, job.DisplayName)
	if err != nil {
		return err
	}
	job.FilePath = newPath

	if err := s.repo.UpdateTransition(ctx, job, from); err != nil {
		if _, mvErr := s.files.Move(newPath, to, from, job.DisplayName); mvErr != nil {
			log.Printf("job %s: commit failed (%v) and rollback move failed (%v); file at %s, record says %s",
				job.ID, err, mvErr, newPath, from)
			return fmt.Errorf("%w: commit failed after file move: %v", ErrCustodyDiverged, err)
		}
		job.FilePath = oldPath
		if errors.Is(err, ErrStaleStatus) {
			return s.staleTransition(ctx, job.ID, to)
		}
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// staleTransition builds the InvalidTransitionError for a lost optimistic
// commit, re-reading the job for the actual current state.
func (s *StateMachine) staleTransition(ctx context.Context, id string, requested Status) error {
	current := Status("")
	if job, err := s.repo.Get(ctx, id); err == nil {
		current = job.Status
	}
	return &InvalidTransitionError{Current: current, Requested: requested}
}

func (s *StateMachine) stamp(job *Job, actor string) {
	job.UpdatedAt = s.now().UTC()
	job.LastUpdatedBy = actor
}
