package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrInvalidID  = errors.New("storage: invalid record id")
	ErrIDMismatch = errors.New("storage: record id mismatch")
	ErrImmutable  = errors.New("storage: immutable record mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
