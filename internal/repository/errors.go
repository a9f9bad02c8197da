package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Store error categories. Every error returned by PostgresRepository matches
// exactly one of these with errors.Is.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrAccess        = errors.New("access to the record store was denied")
	ErrConfiguration = errors.New("record store is not configured correctly")
	ErrInvalid       = errors.New("record rejected by the store")
	ErrUnavailable   = errors.New("record store is unavailable")
)

// StoreError carries the failed operation, its category and the driver error.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the category and the driver error.
func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
var codeKinds = map[pq.ErrorCode]error{
	"42P01": ErrConfiguration, // undefined_table
	"42703": ErrConfiguration, // undefined_column
	"42883": ErrConfiguration, // undefined_function
	"3D000": ErrConfiguration, // invalid_catalog_name
	"42501": ErrAccess,        // insufficient_privilege, includes RLS violations
	"28000": ErrAccess,        // invalid_authorization_specification
	"28P01": ErrAccess,        // invalid_password
	"23505": ErrConflict,      // unique_violation
	"23503": ErrInvalid,       // foreign_key_violation
	"23502": ErrInvalid,       // not_null_violation
	"23514": ErrInvalid,       // check_violation
	"22P02": ErrInvalid,       // invalid_text_representation
	"22007": ErrInvalid,       // invalid_datetime_format
	"22008": ErrInvalid,       // datetime_field_overflow
	"22003": ErrInvalid,       // numeric_value_out_of_range
	"57P01": ErrUnavailable,   // admin_shutdown
	"53300": ErrUnavailable,   // too_many_connections
}

// classify wraps err in a StoreError. It prefers the SQLSTATE code and only
// falls back to message matching for errors that carry none.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *StoreError
	if errors.As(err, &already) {
		return err
	}
	return &StoreError{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if kind, ok := codeKinds[pqErr.Code]; ok {
			return kind
		}
		if pqErr.Code.Class() == "08" { // connection_exception
			return ErrUnavailable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
		return ErrConfiguration
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "row-level security"),
		strings.Contains(msg, "row level security"):
		return ErrAccess
	case strings.Contains(msg, "duplicate"), strings.Contains(msg, "unique"):
		return ErrConflict
	}
	// anything else, including dropped connections and context timeouts
	return ErrUnavailable
}
