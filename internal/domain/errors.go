package domain

import (
	"errors"
	"fmt"
)

// ─── Error Kinds ────────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency. Every specific error
// below unwraps to exactly one of these kinds.

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrNoWorkerAvailable = errors.New("no worker available")
)

// Error is a domain failure tagged with its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func kinded(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Lookup errors
	ErrProjectNotFound = kinded(ErrNotFound, "project not found")
	ErrTaskNotFound    = kinded(ErrNotFound, "task not found")
	ErrWorkerNotFound  = kinded(ErrNotFound, "worker not found")
	ErrClientNotFound  = kinded(ErrNotFound, "client not found")

	// Argument errors
	ErrInvalidDays     = kinded(ErrInvalidArgument, "day count must be positive")
	ErrInvalidDate     = kinded(ErrInvalidArgument, "date precedes the project schedule")
	ErrInvalidRate     = kinded(ErrInvalidArgument, "rate must be positive")
	ErrInvalidCategory = kinded(ErrInvalidArgument, "unknown worker category")
	ErrInvalidKind     = kinded(ErrInvalidArgument, "unknown worker kind")
	ErrEmptyName       = kinded(ErrInvalidArgument, "name must not be empty")
	ErrEmptyTitle      = kinded(ErrInvalidArgument, "task title must not be empty")
	ErrInvalidState    = kinded(ErrInvalidArgument, "unknown project state")
	ErrUnknownPolicy   = kinded(ErrInvalidArgument, "unknown assignment policy")

	// Task state machine errors
	ErrAlreadyAssigned   = kinded(ErrInvalidOperation, "task already has a responsible worker")
	ErrNotAssigned       = kinded(ErrInvalidOperation, "task has no responsible worker")
	ErrNoPriorAssignment = kinded(ErrInvalidOperation, "task has no prior assignment to replace")
	ErrTaskFinalized     = kinded(ErrInvalidOperation, "task is finalized")
	ErrAlreadyFinalized  = kinded(ErrInvalidOperation, "task already finalized")
	ErrWrongWorker       = kinded(ErrInvalidOperation, "worker is not bound to this task")
	ErrWorkerBusy        = kinded(ErrInvalidOperation, "worker is already assigned to another task")

	// Project state machine errors
	ErrProjectFinished = kinded(ErrInvalidOperation, "project is finished")
	ErrAlreadyFinished = kinded(ErrInvalidOperation, "project already finished")
	ErrProjectPending  = kinded(ErrInvalidOperation, "project is pending, no cost to report")
	ErrDuplicateTask   = kinded(ErrInvalidOperation, "task title already exists in project")
	ErrNoTasks         = kinded(ErrInvalidOperation, "project has no tasks")

	// Policy errors
	ErrNoFreeWorker = kinded(ErrNoWorkerAvailable, "no unassigned worker available")
)

// Errorf adds detail to a sentinel while keeping it matchable with errors.Is.
func Errorf(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// KindOf reports which of the four error kinds err belongs to, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrInvalidArgument, ErrInvalidOperation, ErrNoWorkerAvailable} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is the wire name of err's kind, "internal" for foreign errors.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrNotFound:
		return "not_found"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrInvalidOperation:
		return "invalid_operation"
	case ErrNoWorkerAvailable:
		return "no_worker_available"
	}
	return "internal"
}
