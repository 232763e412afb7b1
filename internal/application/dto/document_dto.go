package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/documents/purchases y /api/documents/sales.
// PartyID puede omitirse solo en documentos pagados de contado (se usa PartyName).
type CreateDocumentRequest struct {
	DocumentNumber string                `json:"document_number" validate:"required,max=64"`
	PartyID        string                `json:"party_id" validate:"max=64"`
	PartyName      string                `json:"party_name" validate:"max=200"`
	Date           string                `json:"date" validate:"required,datetime=2006-01-02"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	PaymentStatus  string                `json:"payment_status" validate:"omitempty,oneof=unpaid partial paid"`
	Notes          string                `json:"notes" validate:"max=500"`
	Items          []DocumentItemRequest `json:"items" validate:"dive"`
}

// DocumentItemRequest línea del documento. LineTotal es opcional; si falta se calcula.
type DocumentItemRequest struct {
	ProductID   string           `json:"product_id" validate:"max=64"`
	Description string           `json:"description" validate:"max=255"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}

// CreatePaymentRequest body para POST /api/documents/payments.
// Direction "out" = pago a proveedor, "in" = cobro a cliente.
type CreatePaymentRequest struct {
	Direction      string          `json:"direction" validate:"required,oneof=in out"`
	DocumentNumber string          `json:"document_number" validate:"required,max=64"`
	PartyID        string          `json:"party_id" validate:"required,max=64"`
	Date           string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount         decimal.Decimal `json:"amount"`
	Notes          string          `json:"notes" validate:"max=500"`
}

// DocumentResponse documento con líneas, movimientos y avisos.
type DocumentResponse struct {
	ID             string                 `json:"id"`
	TenantID       string                 `json:"tenant_id"`
	Kind           string                 `json:"kind"`
	DocumentNumber string                 `json:"document_number"`
	PartyID        string                 `json:"party_id,omitempty"`
	PartyName      string                 `json:"party_name,omitempty"`
	Date           string                 `json:"date"`
	GrandTotal     decimal.Decimal        `json:"grand_total"`
	AmountPaid     decimal.Decimal        `json:"amount_paid"`
	Status         string                 `json:"status"`
	PaymentStatus  string                 `json:"payment_status"`
	Notes          string                 `json:"notes,omitempty"`
	Items          []DocumentItemResponse `json:"items,omitempty"`
	Movements      []MovementResponse     `json:"movements,omitempty"`
	Warnings       []StockWarning         `json:"warnings,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DocumentItemResponse línea en la respuesta.
type DocumentItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// MovementResponse movimiento de inventario.
type MovementResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ReferenceDocumentID string          `json:"reference_document_id"`
	Type                string          `json:"movement_type"`
	DeltaQuantity       decimal.Decimal `json:"delta_quantity"`
	ReversesMovementID  string          `json:"reverses_movement_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// StockWarning aviso de stock negativo.
type StockWarning struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// IncompleteDocumentResponse respuesta 202 cuando el documento quedó pendiente de reconciliación.
type IncompleteDocumentResponse struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	DocumentID   string   `json:"document_id"`
	PendingSteps []string `json:"pending_steps"`
}

// DocumentErrorResponse falla de una operación sobre un documento. Discardable indica
// que no quedó ningún efecto aplicado y el documento puede reenviarse.
type DocumentErrorResponse struct {
	ErrorResponse
	DocumentID  string `json:"document_id"`
	Step        string `json:"step"`
	Discardable bool   `json:"discardable"`
}

// ReconciliationItemResponse entrada de la cola de reconciliación.
type ReconciliationItemResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	DocumentID   string    `json:"document_id"`
	Operation    string    `json:"operation"`
	PendingSteps []string  `json:"pending_steps"`
	Reason       string    `json:"reason"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
