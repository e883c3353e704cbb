package linking

import "errors"

// Rejection reasons. A rejected operation performs no writes.
var (
	ErrAlreadyLinked            = errors.New("payable already linked to a transaction")
	ErrParentTransaction        = errors.New("transaction has been split")
	ErrTransactionAlreadyLinked = errors.New("transaction already linked")
	ErrWrongSign                = errors.New("transaction sign does not match payable")
	ErrNotLinked                = errors.New("payable is not linked to a transaction")
)

// ValidationError is a recoverable rejection carrying a human-readable message.
// Use errors.Is against the Err* values to branch on the reason.
type ValidationError struct {
	Reason  error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

func reject(reason error, message string) error {
	return &ValidationError{Reason: reason, Message: message}
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
