package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LedgerEntryRepository define el puerto del libro de terceros (append-only).
type LedgerEntryRepository interface {
	Append(ctx context.Context, e *entity.LedgerEntry) (stored *entity.LedgerEntry, created bool, err error)
	// Apply suma el monto al saldo del tercero de forma atómica; idempotente.
	Apply(ctx context.Context, tenantID, entryID string) (balance decimal.Decimal, applied bool, err error)
	ListByDocument(ctx context.Context, tenantID, documentID string) ([]*entity.LedgerEntry, error)
	ListByParty(ctx context.Context, tenantID, partyID string, from, to *time.Time) ([]*entity.LedgerEntry, error)
	// BalanceBefore suma de asientos aplicados del tercero anteriores a `at`.
	BalanceBefore(ctx context.Context, tenantID, partyID string, at time.Time) (decimal.Decimal, error)
}
