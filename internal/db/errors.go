package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound        = errors.New("db: key not found")
	ErrUnsupportedPattern = errors.New("db: unsupported scan pattern")
)

// Op constants map to Redis command names for error context.
const (
	OpPing   = "PING"
	OpDel    = "DEL"
	OpExists = "EXISTS"
	OpScan   = "SCAN"
	OpGet    = "GET"
	OpSet    = "SET"
	OpIncrBy = "INCRBY"
	OpExpire = "EXPIRE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
