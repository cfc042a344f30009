package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres class 23 integrity violation for unique constraints
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, e.g. two concurrent creates drawing the same order number.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
