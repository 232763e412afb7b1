package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product artículo inventariable de un tenant.
// StockQuantity es una caché de la suma de movimientos aplicados; solo la modifica el mutador de stock.
type Product struct {
	ID            string
	TenantID      string
	SKU           string
	Name          string
	Unit          string
	Price         decimal.Decimal
	StockQuantity decimal.Decimal
	ReorderPoint  decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
