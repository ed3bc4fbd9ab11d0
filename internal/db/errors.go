package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrAcquireTimeout = errors.New("db: connection acquire timeout")
)

// Op constants name the underlying command for error context.
const (
	OpAcquire = "ACQUIRE"
	OpQuery   = "SELECT"
	OpPing    = "PING"
	OpGet     = "GET"
	OpSet     = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
