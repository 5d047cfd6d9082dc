package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents a job's lifecycle stage. The status name doubles as
// the key for the storage directory holding the job's file.
type Status string

const (
	StatusUploaded     Status = "UPLOADED"
	StatusPending      Status = "PENDING"
	StatusRejected     Status = "REJECTED"
	StatusReadyToPrint Status = "READYTOPRINT"
	StatusPrinting     Status = "PRINTING"
	StatusCompleted    Status = "COMPLETED"
	StatusPaidPickedUp Status = "PAIDPICKEDUP"
)

// statusDirs maps each status to its storage directory name. Rejected
// jobs keep their file in Uploaded; there is no Rejected directory.
var statusDirs = map[Status]string{
	StatusUploaded:     "Uploaded",
	StatusPending:      "Pending",
	StatusRejected:     "Uploaded",
	StatusReadyToPrint: "ReadyToPrint",
	StatusPrinting:     "Printing",
	StatusCompleted:    "Completed",
	StatusPaidPickedUp: "PaidPickedUp",
}

// Dir returns the storage directory name a job's file must live in while
// the job carries this status.
func (s Status) Dir() string {
	return statusDirs[s]
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusDirs[s]
	return ok
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPaidPickedUp
}

// Job is one student's print request and its associated physical file.
type Job struct {
	ID string

	// Immutable after creation.
	StudentName      string
	StudentEmail     string
	Discipline       string
	ClassNumber      string
	OriginalFilename string

	// Custody. DisplayName is assigned once at upload and never changes;
	// FilePath is mutated only through file moves and always points into
	// the directory matching Status.
	DisplayName string
	FilePath    string

	// Workflow.
	Status                    Status
	Printer                   string
	Color                     string
	Material                  string
	WeightGrams               float64
	TimeHours                 float64
	CostUSD                   decimal.Decimal
	ScaledCorrectly           bool
	AcknowledgedMinimumCharge bool

	// Confirmation.
	ConfirmToken        string
	ConfirmTokenExpires *time.Time
	StudentConfirmed    bool
	StudentConfirmedAt  *time.Time

	// Audit.
	RejectReasons []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastUpdatedBy string // "student" or "staff"
}
