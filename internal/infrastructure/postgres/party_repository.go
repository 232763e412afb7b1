package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.PartyRepository = (*PartyRepo)(nil)

// PartyRepo terceros (proveedores y clientes) sobre PostgreSQL.
type PartyRepo struct {
	q Querier
}

// NewPartyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartyRepository(q Querier) *PartyRepo {
	return &PartyRepo{q: q}
}

const partyColumns = `id, tenant_id, name, kind, tax_id, phone, current_balance, created_at, updated_at`

func scanParty(row pgx.Row) (*entity.Party, error) {
	var p entity.Party
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Kind, &p.TaxID, &p.Phone,
		&p.CurrentBalance, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartyRepo) Create(ctx context.Context, party *entity.Party) error {
	query := `
		INSERT INTO parties (id, tenant_id, name, kind, tax_id, phone, current_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		party.ID, party.TenantID, party.Name, party.Kind, party.TaxID, party.Phone, party.CreatedAt, party.UpdatedAt)
	if err != nil {
		return classify("parties.create", err)
	}
	return nil
}

func (r *PartyRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Party, error) {
	p, err := scanParty(r.q.QueryRow(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("parties.get", err)
	}
	return p, nil
}

// Update datos de contacto; current_balance no se toca.
func (r *PartyRepo) Update(ctx context.Context, party *entity.Party) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE parties SET name = $3, kind = $4, tax_id = $5, phone = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`,
		party.TenantID, party.ID, party.Name, party.Kind, party.TaxID, party.Phone, party.UpdatedAt)
	if err != nil {
		return classify("parties.update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.PartyNotFound(party.ID)
	}
	return nil
}

// List terceros del tenant; kind vacío lista todos, si no incluye también los "both".
func (r *PartyRepo) List(ctx context.Context, tenantID string, kind entity.PartyKind, limit, offset int) ([]*entity.Party, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+partyColumns+` FROM parties
		WHERE tenant_id = $1 AND ($2::text = '' OR kind = $2::text OR kind = 'both')
		ORDER BY name LIMIT $3 OFFSET $4`,
		tenantID, string(kind), limit, offset)
	if err != nil {
		return nil, classify("parties.list", err)
	}
	defer rows.Close()
	var list []*entity.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		list = append(list, p)
	}
	return list, classify("parties.list", rows.Err())
}
