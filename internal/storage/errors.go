package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every *Error.
	ErrStorage = errors.New("storage failure")
	// ErrVerifyMismatch means a read-back after a write did not return the written value.
	ErrVerifyMismatch = errors.New("write verification mismatch")
	// ErrSerialize means a value could not be encoded as JSON.
	ErrSerialize = errors.New("serialize value")
)

// Error is returned by every failed write path of the Facade.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
