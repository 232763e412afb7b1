package catalog_test

import (
	"context"
	"testing"

	"github.com/jhoicas/ledger-api/internal/application/catalog"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenantA = domain.TenantContext{TenantID: "tenant-a", UserID: "u1", Role: domain.RoleOperator}
	tenantB = domain.TenantContext{TenantID: "tenant-b", UserID: "u2", Role: domain.RoleOperator}
)

func TestProductUseCase_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewProductUseCase(memory.New())

	created, err := uc.Create(ctx, tenantA, dto.CreateProductRequest{
		SKU: "ARZ-01", Name: "Arroz", Price: decimal.NewFromInt(10), ReorderPoint: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "und", created.Unit)
	assert.True(t, created.StockQuantity.IsZero())
	assert.True(t, created.BelowReorder)

	got, err := uc.GetByID(ctx, tenantA, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ARZ-01", got.SKU)

	// otro tenant no lo ve
	_, err = uc.GetByID(ctx, tenantB, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = uc.Create(ctx, tenantA, dto.CreateProductRequest{SKU: "ARZ-01", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// el mismo SKU en otro tenant es válido
	_, err = uc.Create(ctx, tenantB, dto.CreateProductRequest{SKU: "ARZ-01", Name: "Arroz B"})
	assert.NoError(t, err)
}

func TestProductUseCase_Validation(t *testing.T) {
	uc := catalog.NewProductUseCase(memory.New())
	_, err := uc.Create(context.Background(), tenantA, dto.CreateProductRequest{Name: "Sin SKU"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(context.Background(), tenantA, dto.CreateProductRequest{
		SKU: "X", Name: "Negativo", Price: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_UpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := catalog.NewProductUseCase(store)
	require.NoError(t, store.Stores().Products.Create(ctx, &entity.Product{
		ID: "p1", TenantID: tenantA.TenantID, SKU: "P1", Name: "Frijol",
		StockQuantity: decimal.NewFromInt(7),
	}))

	name := "Frijol rojo"
	price := decimal.NewFromInt(12)
	updated, err := uc.Update(ctx, tenantA, "p1", dto.UpdateProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Frijol rojo", updated.Name)
	assert.True(t, decimal.NewFromInt(7).Equal(updated.StockQuantity))

	_, err = uc.Update(ctx, tenantA, "missing", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.List(ctx, tenantA, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestPartyUseCase(t *testing.T) {
	ctx := context.Background()
	uc := catalog.NewPartyUseCase(memory.New())

	sup, err := uc.Create(ctx, tenantA, dto.CreatePartyRequest{Name: "Distribuidora", Kind: "supplier", TaxID: "900123"})
	require.NoError(t, err)
	assert.True(t, sup.CurrentBalance.IsZero())
	_, err = uc.Create(ctx, tenantA, dto.CreatePartyRequest{Name: "Cliente", Kind: "customer"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, tenantA, dto.CreatePartyRequest{Name: "Mixto", Kind: "both"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, tenantA, dto.CreatePartyRequest{Name: "X", Kind: "employee"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	suppliers, err := uc.List(ctx, tenantA, "supplier", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)

	all, err := uc.List(ctx, tenantA, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = uc.GetByID(ctx, tenantB, sup.ID)
	assert.ErrorIs(t, err, domain.ErrPartyNotFound)

	_, err = uc.List(ctx, domain.TenantContext{}, "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
