package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.LedgerEntryRepository   = (*entryRepo)(nil)
	_ repository.OperationLogRepository  = (*operationRepo)(nil)
)

type movementRepo struct{ *view }

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) (*entity.StockMovement, bool, error) {
	var (
		stored  *entity.StockMovement
		created bool
	)
	err := r.write(OpMovementsAppend, func(st *state) error {
		k := movementKey{m.TenantID, m.ReferenceDocumentID, m.ProductID, m.Type}
		if idx, ok := st.movementKeys[k]; ok {
			stored = copyMovement(st.movements[idx])
			return nil
		}
		if p, ok := st.products[m.ProductID]; !ok || p.TenantID != m.TenantID {
			return domain.ProductNotFound(m.ProductID)
		}
		row := copyMovement(m)
		row.AppliedAt = nil
		st.movements = append(st.movements, row)
		st.movementKeys[k] = len(st.movements) - 1
		stored, created = copyMovement(row), true
		return nil
	})
	return stored, created, err
}

func (r *movementRepo) Apply(_ context.Context, tenantID, movementID string) (decimal.Decimal, bool, error) {
	var (
		qty     decimal.Decimal
		applied bool
	)
	err := r.write(OpMovementsApply, func(st *state) error {
		m := findMovement(st, tenantID, movementID)
		if m == nil {
			return fmt.Errorf("movement %s: %w", movementID, domain.ErrNotFound)
		}
		p, ok := st.products[m.ProductID]
		if !ok || p.TenantID != tenantID {
			return domain.ProductNotFound(m.ProductID)
		}
		if m.Applied() {
			qty = p.StockQuantity
			return nil
		}
		at := r.now()
		p.StockQuantity = p.StockQuantity.Add(m.DeltaQuantity)
		p.UpdatedAt = at
		m.AppliedAt = &at
		qty, applied = p.StockQuantity, true
		return nil
	})
	return qty, applied, err
}

func findMovement(st *state, tenantID, id string) *entity.StockMovement {
	for _, m := range st.movements {
		if m.ID == id && m.TenantID == tenantID {
			return m
		}
	}
	return nil
}

func (r *movementRepo) ListByDocument(_ context.Context, tenantID, documentID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.read(func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ReferenceDocumentID == documentID {
				out = append(out, copyMovement(m))
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) ListByProduct(_ context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.read(func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ProductID == productID && inRange(m.CreatedAt, from, to) {
				out = append(out, copyMovement(m))
			}
		}
		return nil
	})
	return paginate(out, limit, offset), err
}

type entryRepo struct{ *view }

func (r *entryRepo) Append(_ context.Context, e *entity.LedgerEntry) (*entity.LedgerEntry, bool, error) {
	var (
		stored  *entity.LedgerEntry
		created bool
	)
	err := r.write(OpEntriesAppend, func(st *state) error {
		k := entryKey{e.TenantID, e.DocumentID, e.PartyID, e.EntryType}
		if idx, ok := st.entryKeys[k]; ok {
			stored = copyEntry(st.entries[idx])
			return nil
		}
		if p, ok := st.parties[e.PartyID]; !ok || p.TenantID != e.TenantID {
			return domain.PartyNotFound(e.PartyID)
		}
		row := copyEntry(e)
		row.AppliedAt = nil
		st.entries = append(st.entries, row)
		st.entryKeys[k] = len(st.entries) - 1
		stored, created = copyEntry(row), true
		return nil
	})
	return stored, created, err
}

func (r *entryRepo) Apply(_ context.Context, tenantID, entryID string) (decimal.Decimal, bool, error) {
	var (
		balance decimal.Decimal
		applied bool
	)
	err := r.write(OpEntriesApply, func(st *state) error {
		var e *entity.LedgerEntry
		for _, cand := range st.entries {
			if cand.ID == entryID && cand.TenantID == tenantID {
				e = cand
				break
			}
		}
		if e == nil {
			return fmt.Errorf("ledger entry %s: %w", entryID, domain.ErrNotFound)
		}
		p, ok := st.parties[e.PartyID]
		if !ok || p.TenantID != tenantID {
			return domain.PartyNotFound(e.PartyID)
		}
		if e.Applied() {
			balance = p.CurrentBalance
			return nil
		}
		at := r.now()
		p.CurrentBalance = p.CurrentBalance.Add(e.Amount)
		p.UpdatedAt = at
		e.AppliedAt = &at
		balance, applied = p.CurrentBalance, true
		return nil
	})
	return balance, applied, err
}

func (r *entryRepo) ListByDocument(_ context.Context, tenantID, documentID string) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	err := r.read(func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.DocumentID == documentID {
				out = append(out, copyEntry(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *entryRepo) ListByParty(_ context.Context, tenantID, partyID string, from, to *time.Time) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	err := r.read(func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.PartyID == partyID && e.Applied() && inRange(e.CreatedAt, from, to) {
				out = append(out, copyEntry(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *entryRepo) BalanceBefore(_ context.Context, tenantID, partyID string, at time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.read(func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.PartyID == partyID && e.Applied() && e.CreatedAt.Before(at) {
				total = total.Add(e.Amount)
			}
		}
		return nil
	})
	return total, err
}

type operationRepo struct{ *view }

func (r *operationRepo) MarkStep(_ context.Context, step *entity.OperationStep) error {
	return r.write(OpStepsMark, func(st *state) error {
		k := stepKey{step.TenantID, step.DocumentID, step.Operation}
		m, ok := st.steps[k]
		if !ok {
			m = make(map[string]time.Time)
			st.steps[k] = m
		}
		if _, done := m[step.Step]; !done {
			m[step.Step] = step.CompletedAt
		}
		return nil
	})
}

func (r *operationRepo) CompletedSteps(_ context.Context, tenantID, documentID, operation string) (map[string]bool, error) {
	out := make(map[string]bool)
	err := r.read(func(st *state) error {
		for step := range st.steps[stepKey{tenantID, documentID, operation}] {
			out[step] = true
		}
		return nil
	})
	return out, err
}
