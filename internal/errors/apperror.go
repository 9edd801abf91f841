package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrValidation          = stderrors.New("validation error")
	ErrStorageRead         = stderrors.New("storage read failed")
	ErrStorageWrite        = stderrors.New("storage write failed")
	ErrInvalidFormat       = stderrors.New("invalid backup file")
	ErrTransferUnavailable = stderrors.New("export is not available on this platform")
	ErrNoCurrentUser       = stderrors.New("no account signed in")
	ErrIndexOutOfRange     = fmt.Errorf("%w: activity index out of range", ErrValidation)
)

// AppError carries a user-facing message on top of one of the sentinel errors above.
type AppError struct {
	Err     error
	Message string
	Field   string // optional
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StorageRead wraps a failed read of key.
func StorageRead(key string, cause error) *AppError {
	return &AppError{
		Err:     stderrors.Join(ErrStorageRead, cause),
		Message: fmt.Sprintf("failed to read %s: %v", key, cause),
		Field:   key,
	}
}

// StorageWrite wraps a failed write of key.
func StorageWrite(key string, cause error) *AppError {
	return &AppError{
		Err:     stderrors.Join(ErrStorageWrite, cause),
		Message: fmt.Sprintf("failed to write %s: %v", key, cause),
		Field:   key,
	}
}

func InvalidFormat(reason string) *AppError {
	return &AppError{
		Err:     ErrInvalidFormat,
		Message: fmt.Sprintf("%s: %s", ErrInvalidFormat.Error(), reason),
	}
}

// Is, As and New are re-exported so callers importing this package under
// its own name do not also need the standard library package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }
