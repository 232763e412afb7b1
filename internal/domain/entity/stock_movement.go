package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

const (
	MovementPurchaseReceived MovementType = "purchase_received"
	MovementSaleDispatched   MovementType = "sale_dispatched"
	MovementAdjustment       MovementType = "adjustment" // compensaciones y ajustes manuales
)

// StockMovement registro inmutable de un cambio de cantidad de un producto.
// (TenantID, ReferenceDocumentID, ProductID, Type) es su clave de idempotencia.
type StockMovement struct {
	ID                  string
	TenantID            string
	ProductID           string
	ReferenceDocumentID string
	Type                MovementType
	DeltaQuantity       decimal.Decimal // con signo
	ReversesMovementID  string
	AppliedAt           *time.Time // nil mientras el delta no se sumó al producto
	CreatedAt           time.Time
	CreatedBy           string
}

// Applied indica si el delta ya se reflejó en Product.StockQuantity.
func (m *StockMovement) Applied() bool { return m.AppliedAt != nil }
