package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BalanceDelta monto con signo a sumar al saldo de un tercero.
type BalanceDelta struct {
	PartyID         string
	DocumentID      string
	Amount          decimal.Decimal
	EntryType       entity.LedgerEntryType
	ReversesEntryID string
}

// BalanceResult resultado de aplicar un delta de saldo.
type BalanceResult struct {
	Entry   *entity.LedgerEntry
	Balance decimal.Decimal
	Applied bool
}

// BalanceMutator registra el asiento del tercero y lo suma a su saldo de forma atómica.
type BalanceMutator struct {
	log   zerolog.Logger
	newID func() string
	now   func() time.Time
}

// NewBalanceMutator construye el mutador.
func NewBalanceMutator(log zerolog.Logger, newID func() string, now func() time.Time) *BalanceMutator {
	return &BalanceMutator{log: log, newID: newID, now: now}
}

// Apply agrega el asiento (idempotente por documento, tercero y tipo) y lo aplica.
func (b *BalanceMutator) Apply(ctx context.Context, s repository.Stores, tc domain.TenantContext, d BalanceDelta) (*BalanceResult, error) {
	entry := &entity.LedgerEntry{
		ID:              b.newID(),
		TenantID:        tc.TenantID,
		PartyID:         d.PartyID,
		DocumentID:      d.DocumentID,
		EntryType:       d.EntryType,
		Amount:          d.Amount,
		ReversesEntryID: d.ReversesEntryID,
		CreatedAt:       b.now().UTC(),
	}
	stored, _, err := s.Entries.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	balance, applied, err := s.Entries.Apply(ctx, tc.TenantID, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("apply ledger entry: %w", err)
	}
	if applied {
		b.log.Debug().
			Str("tenant_id", tc.TenantID).
			Str("party_id", d.PartyID).
			Str("amount", d.Amount.String()).
			Str("balance", balance.String()).
			Msg("saldo actualizado")
	}
	return &BalanceResult{Entry: stored, Balance: balance, Applied: applied}, nil
}
