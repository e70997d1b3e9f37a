package vesting

import (
	"errors"
	"fmt"

	"github.com/xraph/vesting/schedule"
)

// Sentinel errors for common failure scenarios.
var (
	// Authorization errors
	ErrUnauthorized = errors.New("vesting: unauthorized")

	// Validation errors
	ErrInvalidAddress = errors.New("vesting: invalid address")
	ErrInvalidAmount  = errors.New("vesting: invalid amount")
	ErrInvalidTime    = errors.New("vesting: invalid time")
	ErrLengthMismatch = errors.New("vesting: mismatched batch lengths")

	// State errors
	ErrProgramExists       = errors.New("vesting: program already exists")
	ErrProgramNotFound     = errors.New("vesting: program not found")
	ErrBeneficiaryNotFound = errors.New("vesting: beneficiary not found")
	ErrInsufficientPool    = errors.New("vesting: insufficient pool")
	ErrNothingToClaim      = errors.New("vesting: nothing to claim")
	ErrNoLedger            = errors.New("vesting: no token ledger configured")
	ErrReceiptNotFound     = errors.New("vesting: receipt not found")

	// Transfer errors
	ErrTransferFailed = errors.New("vesting: token transfer failed")

	// Store errors
	ErrStoreClosed       = errors.New("vesting: store is closed")
	ErrTransactionFailed = errors.New("vesting: transaction failed")
	ErrMigrationFailed   = errors.New("vesting: migration failed")
)

// ErrNotStarted is returned when a schedule has no start time or the clock
// has not reached it. Defined in the schedule package; re-exported here so
// callers match against one error surface.
var ErrNotStarted = schedule.ErrNotStarted

// ValidationError represents a validation failure with field context. It
// wraps the matching sentinel so errors.Is classification still works.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vesting: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrLengthMismatch)
}

// IsAuthorization returns true if the error is an authorization failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsState returns true if the error reflects the current ledger state
// rather than bad input.
func IsState(err error) bool {
	return errors.Is(err, ErrProgramExists) ||
		errors.Is(err, ErrProgramNotFound) ||
		errors.Is(err, ErrBeneficiaryNotFound) ||
		errors.Is(err, ErrInsufficientPool) ||
		errors.Is(err, ErrNothingToClaim) ||
		errors.Is(err, ErrNotStarted)
}

// IsTransfer returns true if the error came from the external token ledger.
func IsTransfer(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProgramNotFound) ||
		errors.Is(err, ErrBeneficiaryNotFound) ||
		errors.Is(err, ErrReceiptNotFound)
}
