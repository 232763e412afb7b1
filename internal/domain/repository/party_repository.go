package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// PartyRepository define el puerto de persistencia para terceros.
// Update no toca current_balance; solo LedgerEntryRepository.Apply lo modifica.
type PartyRepository interface {
	Create(ctx context.Context, party *entity.Party) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Party, error)
	Update(ctx context.Context, party *entity.Party) error
	List(ctx context.Context, tenantID string, kind entity.PartyKind, limit, offset int) ([]*entity.Party, error)
}
