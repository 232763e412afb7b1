package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// PartyUseCase alta y consulta de proveedores y clientes.
type PartyUseCase struct {
	uow ledger.UnitOfWork
	now func() time.Time
}

// NewPartyUseCase construye el caso de uso.
func NewPartyUseCase(uow ledger.UnitOfWork) *PartyUseCase {
	return &PartyUseCase{uow: uow, now: time.Now}
}

// Create crea un tercero con saldo cero.
func (uc *PartyUseCase) Create(ctx context.Context, tc domain.TenantContext, in dto.CreatePartyRequest) (*dto.PartyResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, domain.NewValidationError("", err.Error())
	}
	now := uc.now().UTC()
	party := &entity.Party{
		ID:             uuid.New().String(),
		TenantID:       tc.TenantID,
		Name:           in.Name,
		Kind:           entity.PartyKind(in.Kind),
		TaxID:          in.TaxID,
		Phone:          in.Phone,
		CurrentBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		return s.Parties.Create(ctx, party)
	}); err != nil {
		return nil, err
	}
	return ToPartyResponse(party), nil
}

// GetByID obtiene un tercero con su saldo vigente.
func (uc *PartyUseCase) GetByID(ctx context.Context, tc domain.TenantContext, id string) (*dto.PartyResponse, error) {
	var party *entity.Party
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		party, err = s.Parties.GetByID(ctx, tc.TenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, domain.PartyNotFound(id)
	}
	return ToPartyResponse(party), nil
}

// List lista terceros; kind vacío devuelve todos.
func (uc *PartyUseCase) List(ctx context.Context, tc domain.TenantContext, kind string, page dto.PageRequest) ([]*dto.PartyResponse, error) {
	page.Normalize()
	var list []*entity.Party
	err := uc.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		list, err = s.Parties.List(ctx, tc.TenantID, entity.PartyKind(kind), page.Limit, page.Offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PartyResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ToPartyResponse(p))
	}
	return out, nil
}

func ToPartyResponse(p *entity.Party) *dto.PartyResponse {
	if p == nil {
		return nil
	}
	return &dto.PartyResponse{
		ID:             p.ID,
		TenantID:       p.TenantID,
		Name:           p.Name,
		Kind:           string(p.Kind),
		TaxID:          p.TaxID,
		Phone:          p.Phone,
		CurrentBalance: p.CurrentBalance,
		CreatedAt:      p.CreatedAt,
	}
}
