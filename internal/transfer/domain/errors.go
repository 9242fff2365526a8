package domain

import "errors"

// Class sentinels; match with errors.Is.
var (
	// ErrValidation matches every *ValidationError. Raised before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrPrecondition matches every *PreconditionError. Raised before a submission is possible.
	ErrPrecondition = errors.New("precondition failed")
)

// Preconditions of a transfer.
var (
	ErrPinNotRegistered error = &PreconditionError{msg: "no transfer PIN registered: create a PIN first"}
	ErrAccountNotOwned  error = &PreconditionError{msg: "source account is not an active account of the current user"}
)

// Session state errors returned by the workflow.
var (
	ErrSessionActive      = errors.New("a transfer is already in progress")
	ErrNoPendingTransfer  = errors.New("no transfer is awaiting PIN confirmation")
	ErrSubmissionInFlight = errors.New("transfer submission already in progress")
)

// ErrPinMismatch is returned when a new PIN and its confirmation differ.
var ErrPinMismatch error = &ValidationError{Field: "pin", Reason: "and confirmation do not match"}

// ValidationError is a locally detected input error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PreconditionError means the transfer cannot start in the current account state.
type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string {
	return e.msg
}

// Is makes every PreconditionError match ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
