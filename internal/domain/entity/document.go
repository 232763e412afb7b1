package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento comercial.
type DocumentKind string

const (
	DocumentPurchase   DocumentKind = "purchase"    // factura de proveedor
	DocumentSale       DocumentKind = "sale"        // factura de venta
	DocumentPaymentOut DocumentKind = "payment_out" // pago a proveedor
	DocumentPaymentIn  DocumentKind = "payment_in"  // cobro a cliente
)

// Valid indica si el tipo es conocido.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentPurchase, DocumentSale, DocumentPaymentOut, DocumentPaymentIn:
		return true
	}
	return false
}

// CarriesItems indica si el documento mueve inventario por líneas.
func (k DocumentKind) CarriesItems() bool {
	return k == DocumentPurchase || k == DocumentSale
}

// DocumentStatus ciclo de vida del documento.
type DocumentStatus string

const (
	StatusDraft                 DocumentStatus = "draft"
	StatusPendingReconciliation DocumentStatus = "pending_reconciliation"
	StatusFinalized             DocumentStatus = "finalized"
	StatusReversalPending       DocumentStatus = "reversal_pending"
	StatusCancelled             DocumentStatus = "cancelled"
)

// transiciones permitidas; nunca se reabre un documento anulado.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:                 {StatusFinalized, StatusPendingReconciliation, StatusCancelled},
	StatusPendingReconciliation: {StatusFinalized},
	StatusFinalized:             {StatusReversalPending, StatusCancelled},
	StatusReversalPending:       {StatusCancelled},
}

// CanTransition valida una transición de estado.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	for _, allowed := range documentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal indica que el documento ya no admite cambios de efectos.
func (s DocumentStatus) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// PaymentStatus estado de pago registrado en el documento.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Document cabecera de un documento comercial de un tenant.
type Document struct {
	ID             string
	TenantID       string
	Kind           DocumentKind
	DocumentNumber string
	PartyID        string
	PartyName      string // texto libre cuando no hay tercero registrado
	Date           time.Time
	GrandTotal     decimal.Decimal
	AmountPaid     decimal.Decimal
	Status         DocumentStatus
	PaymentStatus  PaymentStatus
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Outstanding saldo no pagado del documento.
func (d *Document) Outstanding() decimal.Decimal {
	return d.GrandTotal.Sub(d.AmountPaid)
}

// LineItem línea de un documento. Quantity se registra positiva; el tipo de documento da el signo.
type LineItem struct {
	ID          string
	DocumentID  string
	Position    int
	ProductID   string // vacío en líneas de texto libre
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}
