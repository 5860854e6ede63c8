package postgres

import (
	"errors"

	"github.com/geocoder89/rentalhub/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return true
	}
	return false
}

// IsExclusionViolation matches the bookings_no_overlap constraint firing.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == codeExclusionViolation
}

func observe(prom *observability.Prom, op string, fn func() error) error {
	if prom != nil {
		return prom.ObserveDB(op, fn)
	}
	return fn()
}
