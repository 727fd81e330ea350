package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const (
	pgUniqueViolation       = "23505"
	pgInsufficientPrivilege = "42501"
)

// pgCode extracts the SQLSTATE from either driver's error type.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// classify maps access failures to ErrPermissionDenied and leaves every other
// error as it is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if pgCode(err) == pgInsufficientPrivilege {
		return errors.Join(domain.ErrPermissionDenied, err)
	}
	return err
}
