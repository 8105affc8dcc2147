package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrQuorumNotMet means a batch request arrived without the required
	// number of valid, distinct signatures. Returned before any transfer row
	// or ledger state is touched.
	ErrQuorumNotMet = errors.New("quorum not met")

	// ErrRollbackNotAllowed covers every reason a compensating transaction
	// cannot run: wrong transfer state, or the source ledger refusing the
	// reversal because state has moved on.
	ErrRollbackNotAllowed = errors.New("rollback not allowed")

	// ErrRecordAccessDenied means the caller failed the access check for one
	// of the referenced records.
	ErrRecordAccessDenied = errors.New("caller does not have access to record")

	ErrTransferNotFound = errors.New("no such transfer")
)

// ValidationError is a malformed request. It is always resolved before a
// transfer is created, so it never has side effects.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
