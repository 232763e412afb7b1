package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/ledger-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isTransient fallas en las que repetir la unidad de trabajo completa es seguro.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57P01", // admin_shutdown
			"53300": // too_many_connections
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08")
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify traduce un error de pgx a la taxonomía del dominio. Los errores que ya son del
// dominio se devuelven tal cual.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if isTransient(err) {
		return domain.TransientStoreError(op, err)
	}
	return domain.PermanentStoreError(op, err)
}

// nullString "" -> NULL para columnas de referencia opcionales.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// limitOrAll 0 -> sin límite (LIMIT NULL).
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
