package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

// LedgerEntryRepo libro de asientos por tercero (append-only).
type LedgerEntryRepo struct {
	q Querier
}

// NewLedgerEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

const entryColumns = `id, tenant_id, party_id, document_id, entry_type, amount,
	COALESCE(reverses_entry_id, ''), applied_at, created_at`

func scanEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	if err := row.Scan(&e.ID, &e.TenantID, &e.PartyID, &e.DocumentID, &e.EntryType, &e.Amount,
		&e.ReversesEntryID, &e.AppliedAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// Append idempotente por (tenant, documento, tercero, tipo).
func (r *LedgerEntryRepo) Append(ctx context.Context, e *entity.LedgerEntry) (*entity.LedgerEntry, bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO ledger_entries (id, tenant_id, party_id, document_id, entry_type, amount, reverses_entry_id, created_at)
		SELECT $1, $2, p.id, $4, $5, $6, $7, $8
		FROM parties p WHERE p.tenant_id = $2 AND p.id = $3
		ON CONFLICT (tenant_id, document_id, party_id, entry_type) DO NOTHING`,
		e.ID, e.TenantID, e.PartyID, e.DocumentID, e.EntryType, e.Amount, nullString(e.ReversesEntryID), e.CreatedAt)
	if err != nil {
		return nil, false, classify("entries.append", err)
	}
	stored, err := scanEntry(r.q.QueryRow(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE tenant_id = $1 AND document_id = $2 AND party_id = $3 AND entry_type = $4`,
		e.TenantID, e.DocumentID, e.PartyID, e.EntryType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.PartyNotFound(e.PartyID)
		}
		return nil, false, classify("entries.append", err)
	}
	return stored, tag.RowsAffected() == 1, nil
}

// Apply suma el monto a current_balance y marca el asiento aplicado en una sola sentencia.
func (r *LedgerEntryRepo) Apply(ctx context.Context, tenantID, entryID string) (decimal.Decimal, bool, error) {
	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, `
		WITH le AS (
			UPDATE ledger_entries SET applied_at = now()
			WHERE tenant_id = $1 AND id = $2 AND applied_at IS NULL
			RETURNING party_id, amount
		)
		UPDATE parties p
		SET current_balance = p.current_balance + le.amount, updated_at = now()
		FROM le
		WHERE p.tenant_id = $1 AND p.id = le.party_id
		RETURNING p.current_balance`, tenantID, entryID).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, classify("entries.apply", err)
	}
	err = r.q.QueryRow(ctx, `
		SELECT p.current_balance FROM ledger_entries e
		JOIN parties p ON p.id = e.party_id AND p.tenant_id = e.tenant_id
		WHERE e.tenant_id = $1 AND e.id = $2`, tenantID, entryID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, fmt.Errorf("ledger entry %s: %w", entryID, domain.ErrNotFound)
		}
		return decimal.Zero, false, classify("entries.apply", err)
	}
	return balance, false, nil
}

func (r *LedgerEntryRepo) ListByDocument(ctx context.Context, tenantID, documentID string) ([]*entity.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE tenant_id = $1 AND document_id = $2 ORDER BY created_at, id`, tenantID, documentID)
}

// ListByParty asientos aplicados del tercero en el rango, en orden cronológico.
func (r *LedgerEntryRepo) ListByParty(ctx context.Context, tenantID, partyID string, from, to *time.Time) ([]*entity.LedgerEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE tenant_id = $1 AND party_id = $2 AND applied_at IS NOT NULL
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at, id`, tenantID, partyID, from, to)
}

// BalanceBefore saldo de apertura para el estado de cuenta.
func (r *LedgerEntryRepo) BalanceBefore(ctx context.Context, tenantID, partyID string, at time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE tenant_id = $1 AND party_id = $2 AND applied_at IS NOT NULL AND created_at < $3`,
		tenantID, partyID, at).Scan(&total)
	if err != nil {
		return decimal.Zero, classify("entries.balance_before", err)
	}
	return total, nil
}

func (r *LedgerEntryRepo) query(ctx context.Context, sql string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("entries.list", err)
	}
	defer rows.Close()
	var out []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, classify("entries.list", rows.Err())
}
