package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository = (*productRepo)(nil)
	_ repository.PartyRepository   = (*partyRepo)(nil)
)

type productRepo struct{ *view }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.write("products.create", func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.products {
			if other.TenantID == p.TenantID && p.SKU != "" && other.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = copyProduct(p)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.read(func(st *state) error {
		if p, ok := st.products[id]; ok && p.TenantID == tenantID {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, tenantID, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.read(func(st *state) error {
		for _, p := range st.products {
			if p.TenantID == tenantID && p.SKU == sku {
				out = copyProduct(p)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.write("products.update", func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok || cur.TenantID != p.TenantID {
			return domain.ProductNotFound(p.ID)
		}
		cur.SKU = p.SKU
		cur.Name = p.Name
		cur.Unit = p.Unit
		cur.Price = p.Price
		cur.ReorderPoint = p.ReorderPoint
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *productRepo) List(_ context.Context, tenantID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.read(func(st *state) error {
		for _, p := range st.products {
			if p.TenantID == tenantID {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), err
}

func (r *productRepo) LedgerQuantity(_ context.Context, tenantID, productID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.read(func(st *state) error {
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ProductID == productID && m.Applied() {
				total = total.Add(m.DeltaQuantity)
			}
		}
		return nil
	})
	return total, err
}

type partyRepo struct{ *view }

func (r *partyRepo) Create(_ context.Context, p *entity.Party) error {
	return r.write("parties.create", func(st *state) error {
		if _, ok := st.parties[p.ID]; ok {
			return domain.ErrDuplicate
		}
		st.parties[p.ID] = copyParty(p)
		return nil
	})
}

func (r *partyRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Party, error) {
	var out *entity.Party
	err := r.read(func(st *state) error {
		if p, ok := st.parties[id]; ok && p.TenantID == tenantID {
			out = copyParty(p)
		}
		return nil
	})
	return out, err
}

func (r *partyRepo) Update(_ context.Context, p *entity.Party) error {
	return r.write("parties.update", func(st *state) error {
		cur, ok := st.parties[p.ID]
		if !ok || cur.TenantID != p.TenantID {
			return domain.PartyNotFound(p.ID)
		}
		cur.Name = p.Name
		cur.Kind = p.Kind
		cur.TaxID = p.TaxID
		cur.Phone = p.Phone
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *partyRepo) List(_ context.Context, tenantID string, kind entity.PartyKind, limit, offset int) ([]*entity.Party, error) {
	var out []*entity.Party
	err := r.read(func(st *state) error {
		for _, p := range st.parties {
			if p.TenantID != tenantID {
				continue
			}
			if kind != "" && p.Kind != kind && p.Kind != entity.PartyBoth {
				continue
			}
			out = append(out, copyParty(p))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), err
}
