package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage-level errors. Repositories translate these into domain errors.
var (
	ErrNotFound        = errors.New("row not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrConstraint      = errors.New("constraint violation")
)

// MapPostgresError translates pgx errors into the package sentinels
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrUniqueViolation
		case "23503", "23502", "23514": // foreign_key, not_null, check
			return ErrConstraint
		}
	}

	return err
}
