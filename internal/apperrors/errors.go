package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrPrecondition indicates that a remote operation was not attempted because
// local prerequisites (access token, document id) are missing.
var ErrPrecondition = errors.New("precondition failed")

// ErrRemote indicates that the remote store rejected a request or could not be reached.
var ErrRemote = errors.New("remote store error")

// ErrCorruptPayload indicates that fetched or imported content is not a valid document.
var ErrCorruptPayload = errors.New("corrupt payload")

// ErrConfirmationRequired indicates that a destructive operation needs explicit confirmation.
var ErrConfirmationRequired = errors.New("confirmation required")

// RemoteError carries the status and message returned by the remote store.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	}
}

// Unwrap lets errors.Is match both ErrRemote and the underlying transport error.
func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemote, e.Err}
	}
	return []error{ErrRemote}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
