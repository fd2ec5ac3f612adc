package storage

import "errors"

// ErrStorage is matched (errors.Is) by every fault the Engine returns. It
// means the data store could not complete the operation; nothing was written.
var ErrStorage = errors.New("storage failure")

// Error describes a failed Engine operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

// Unwrap exposes the underlying driver or GORM error.
func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for any *Error.
func (e *Error) Is(target error) bool { return target == ErrStorage }
