// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"bizzy/internal/database"
	"bizzy/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// readDB routes reads to the replica when primary is the process-wide
// connection. Repositories built on another handle (tests, transactions)
// keep reading from it.
func readDB(primary *gorm.DB) *gorm.DB {
	if primary == database.GetDB() {
		if db := database.GetReadDB(); db != nil {
			return db
		}
	}
	return primary
}

// isUniqueConstraintError reports whether err is a unique-key violation on
// PostgreSQL or SQLite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND AppError with the
// given message and anything else to an internal error.
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundMessage(message)
	}
	return models.NewInternalError(err)
}

// absent runs a single-row lookup and reports (false, nil) when no row matched.
func absent(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	return false, models.NewInternalError(err)
}
