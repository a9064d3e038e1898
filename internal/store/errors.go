package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// UndefinedTableCode is the Postgres SQLSTATE for a relation that does not exist.
const UndefinedTableCode = "42P01"

var (
	// ErrNotFound is returned when no row matches the requested id
	ErrNotFound = errors.New("store: record not found")

	// ErrEmptyPatch is returned when an update carries no columns
	ErrEmptyPatch = errors.New("store: no fields to update")
)

// CollectionMissingError means the target table has not been created yet.
// Callers use it to tell an undeployed schema apart from a runtime failure.
type CollectionMissingError struct {
	Collection string
	Err        error
}

func (e *CollectionMissingError) Error() string {
	return fmt.Sprintf("store: collection %q does not exist", e.Collection)
}

func (e *CollectionMissingError) Unwrap() error { return e.Err }

// Code returns the database error code behind the failure.
func (e *CollectionMissingError) Code() string { return UndefinedTableCode }

// IsCollectionMissing reports whether err (or anything it wraps) is a CollectionMissingError.
func IsCollectionMissing(err error) bool {
	var missing *CollectionMissingError
	return errors.As(err, &missing)
}

// ErrorCode extracts the database error code from err, or "" when there is none.
func ErrorCode(err error) string {
	var missing *CollectionMissingError
	if errors.As(err, &missing) {
		return missing.Code()
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ErrorHint extracts the database hint from err, or "" when there is none.
func ErrorHint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Hint
	}
	return ""
}

func translate(collection string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UndefinedTableCode {
		return &CollectionMissingError{Collection: collection, Err: err}
	}
	return err
}
