package repository

import (
	"errors"
	"fmt"
	"strings"

	"mutualaid/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DuplicateError reports which unique column a write collided on.
type DuplicateError struct {
	Table string
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s.%s", e.Table, e.Field)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// uniqueViolation inspects a driver error for a unique-index collision.
// PostgreSQL is recognised by SQLSTATE, SQLite by its error text.
func uniqueViolation(err error) (*DuplicateError, bool) {
	if err == nil {
		return nil, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return nil, false
		}
		return &DuplicateError{
			Table: pgErr.TableName,
			Field: fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName),
			Err:   err,
		}, true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Err: err}, true
	}

	const sqlitePrefix = "UNIQUE constraint failed: "
	msg := err.Error()
	if i := strings.Index(msg, sqlitePrefix); i >= 0 {
		cols := msg[i+len(sqlitePrefix):]
		first, _, _ := strings.Cut(cols, ",")
		table, field, _ := strings.Cut(strings.TrimSpace(first), ".")
		return &DuplicateError{Table: table, Field: field, Err: err}, true
	}

	return nil, false
}

// fieldFromConstraint maps "idx_users_email" or "users_email_key" to "email".
func fieldFromConstraint(table, constraint string) string {
	field := constraint
	field = strings.TrimPrefix(field, "idx_")
	if table != "" {
		field = strings.TrimPrefix(field, table+"_")
	}
	field = strings.TrimSuffix(field, "_key")
	return field
}

// wrapWriteError converts a driver error from an insert or update into an AppError.
func wrapWriteError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if dup, ok := uniqueViolation(err); ok {
		return &models.AppError{
			Code:    models.CodeConflict,
			Message: fmt.Sprintf("%s already exists", resource),
			Err:     dup,
		}
	}
	return models.NewInternalError(err)
}

// wrapReadError converts a driver error from a single-row read.
func wrapReadError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// AsDuplicate extracts the DuplicateError from an error chain.
func AsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
