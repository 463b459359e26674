package store

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint would be violated
	ErrDuplicate = errors.New("already exists")
	// ErrStaleStatus is returned when a conditional status update matched no row
	ErrStaleStatus = errors.New("status changed concurrently")
)

// pqUniqueViolation is the postgres SQLSTATE for unique_violation
const pqUniqueViolation = pq.ErrorCode("23505")

// isUniqueViolation recognizes unique-constraint errors from sqlite and postgres
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
