package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ ledger.UnitOfWork = (*TxRunner)(nil)

// TxRunner ejecuta cada unidad de trabajo del núcleo dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Atomic siempre true: un error revierte todos los efectos de la unidad.
func (r *TxRunner) Atomic() bool { return true }

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de begin/commit se clasifican para que el coordinador decida si reintenta.
func (r *TxRunner) Run(ctx context.Context, tc domain.TenantContext, fn func(repository.Stores) error) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return domain.TransientStoreError("commit", err)
		}
		return classify("commit", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// NewStores repositorios sobre un pool (lecturas sueltas) o una tx.
func NewStores(q Querier) repository.Stores {
	return repository.Stores{
		Documents:  NewDocumentRepository(q),
		Products:   NewProductRepository(q),
		Parties:    NewPartyRepository(q),
		Movements:  NewStockMovementRepository(q),
		Entries:    NewLedgerEntryRepository(q),
		Operations: NewOperationLogRepository(q),
	}
}
