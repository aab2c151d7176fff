package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

// UniqueViolation reports whether err carries a PostgreSQL unique constraint
// violation and, if so, the name of the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
