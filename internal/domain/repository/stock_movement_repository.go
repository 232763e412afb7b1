package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockMovementRepository define el puerto del libro de movimientos (append-only).
type StockMovementRepository interface {
	// Append inserta el movimiento o devuelve el existente con la misma clave de idempotencia.
	// created=false indica que ya existía.
	Append(ctx context.Context, m *entity.StockMovement) (stored *entity.StockMovement, created bool, err error)
	// Apply suma el delta del movimiento a la cantidad del producto en una sola operación atómica
	// del almacén y lo marca aplicado. Si ya estaba aplicado no cambia nada (applied=false).
	Apply(ctx context.Context, tenantID, movementID string) (quantity decimal.Decimal, applied bool, err error)
	ListByDocument(ctx context.Context, tenantID, documentID string) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
