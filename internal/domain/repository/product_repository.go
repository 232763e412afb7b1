package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Update no toca stock_quantity; solo StockMovementRepository.Apply lo modifica.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error)
	// LedgerQuantity suma los deltas aplicados del producto (auditoría de la caché).
	LedgerQuantity(ctx context.Context, tenantID, productID string) (decimal.Decimal, error)
}
