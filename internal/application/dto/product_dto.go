package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El stock inicial entra por documento.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Unit         string          `json:"unit" validate:"max=20"`
	Price        decimal.Decimal `json:"price"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock).
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit         *string          `json:"unit" validate:"omitempty,max=20"`
	Price        *decimal.Decimal `json:"price"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	BelowReorder  bool            `json:"below_reorder"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
