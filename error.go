package sqlite

import (
	"errors"
	"fmt"
)

// define all package level errors here

// Engine failures carry their native result code in *Error; the sentinels
// below cover conditions raised by this layer itself, matched with errors.Is.
var (
	ErrInvalidColumnName    = errors.New("sqlite: invalid column name")
	ErrInvalidParameterName = errors.New("sqlite: invalid parameter name")
	ErrExecuteReturnedRows  = errors.New("sqlite: execute returned rows (did you mean query?)")
	ErrNoRows               = errors.New("sqlite: query returned no rows")
	ErrNulByte              = errors.New("sqlite: string contains a NUL byte")
	ErrEmptyStatement       = errors.New("sqlite: empty statement")
	ErrBindType             = errors.New("sqlite: unsupported bind type")
	ErrIntOverflow          = errors.New("sqlite: integer value out of int64 range")
	ErrClosed               = errors.New("sqlite: already closed")
)

// Error is a decoded engine failure.
type Error struct {
	Code     StatusCode
	Extended int32
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sqlite: error code %d", int32(e.Code))
	}
	return fmt.Sprintf("sqlite: %s (%d)", e.Message, int32(e.Code))
}

// errFromCode decodes a result code without a database handle in reach,
// falling back to the engine's generic message for the code.
func errFromCode(code StatusCode) error {
	switch code {
	case SQLITE_OK, SQLITE_ROW, SQLITE_DONE:
		return nil
	}
	return &Error{Code: code, Extended: int32(code), Message: c_sqlite3_errstr(int32(code))}
}
