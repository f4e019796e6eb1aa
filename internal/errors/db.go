package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Regular expressions for parsing sqlite constraint messages. The driver
// reports the offending column as "<TYPE> constraint failed: table.column".
var (
	reUniqueColumn  = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)
	reNotNullColumn = regexp.MustCompile(`NOT NULL constraint failed: \w+\.(\w+)`)
)

// MapDBError maps database errors to AppError instances.
// It handles the common sqlite error patterns:
// - sql.ErrNoRows → NotFound
// - Unique/primary key violations → Conflict
// - Foreign key violations → ForeignKey
// - CHECK constraint violations → Validation
// - NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "Resource not found",
			Cause:   err,
		}
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return mapSQLiteError(sqliteErr)
	}

	// Return original error if not a recognized database error
	return err
}

// mapSQLiteError maps sqlite result codes to AppError instances. Extended
// result codes carry the constraint class in their high byte; the low byte is
// the primary code.
func mapSQLiteError(sqliteErr *sqlite.Error) error {
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return mapUniqueViolation(sqliteErr)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return &AppError{
			Code:    ErrCodeForeignKey,
			Message: "Cannot complete operation because the referenced item does not exist or is in use.",
			Cause:   sqliteErr,
		}
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return mapNotNullViolation(sqliteErr)
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Cause:   sqliteErr,
		}
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "The database is busy. Please try again.",
			Cause:   sqliteErr,
		}
	}

	// Primary-code fallback for drivers that report the bare constraint class.
	if sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return mapConstraintByMessage(sqliteErr)
	}

	return &AppError{
		Code:    ErrCodeInternal,
		Message: "A database error occurred. Please try again.",
		Cause:   sqliteErr,
	}
}

// mapConstraintByMessage classifies a bare SQLITE_CONSTRAINT by its message text.
func mapConstraintByMessage(sqliteErr *sqlite.Error) error {
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return mapUniqueViolation(sqliteErr)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &AppError{
			Code:    ErrCodeForeignKey,
			Message: "Cannot complete operation because the referenced item does not exist or is in use.",
			Cause:   sqliteErr,
		}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return mapNotNullViolation(sqliteErr)
	default:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Cause:   sqliteErr,
		}
	}
}

// mapUniqueViolation maps unique constraint violations to Conflict errors.
func mapUniqueViolation(sqliteErr *sqlite.Error) error {
	appErr := &AppError{
		Code:    ErrCodeConflict,
		Message: "This value already exists. Please choose a different one.",
		Cause:   sqliteErr,
	}
	if m := reUniqueColumn.FindStringSubmatch(sqliteErr.Error()); len(m) == 2 {
		appErr.Field = m[1]
	}
	return appErr
}

// mapNotNullViolation maps NOT NULL constraint violations to Validation errors.
func mapNotNullViolation(sqliteErr *sqlite.Error) error {
	appErr := &AppError{
		Code:    ErrCodeValidation,
		Message: "Required field is missing. Please check your input.",
		Cause:   sqliteErr,
	}
	if m := reNotNullColumn.FindStringSubmatch(sqliteErr.Error()); len(m) == 2 {
		appErr.Field = m[1]
		appErr.Message = "This field is required."
	}
	return appErr
}
