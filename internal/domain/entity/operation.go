package entity

import "time"

// Operaciones registradas en el log de pasos.
const (
	OperationCreate  = "create"
	OperationReverse = "reverse"
)

// Pasos fijos; los de stock y saldo se nombran con StockStep/BalanceStep.
const (
	StepDocumentWritten = "document_written"
	StepFinalized       = "finalized"
	StepReversalStarted = "reversal_started"
	StepCancelled       = "cancelled"
)

// StockStep nombre del paso de stock para un producto.
func StockStep(productID string) string { return "stock:" + productID }

// BalanceStep nombre del paso de saldo para un tercero.
func BalanceStep(partyID string) string { return "balance:" + partyID }

// OperationStep paso completado de una operación sobre un documento (append-only).
type OperationStep struct {
	TenantID    string
	DocumentID  string
	Operation   string
	Step        string
	CompletedAt time.Time
}

// DocumentEvent evento publicado al finalizar o anular un documento.
type DocumentEvent struct {
	Type           string    `json:"type"`
	TenantID       string    `json:"tenant_id"`
	DocumentID     string    `json:"document_id"`
	Kind           string    `json:"kind"`
	DocumentNumber string    `json:"document_number"`
	PartyID        string    `json:"party_id,omitempty"`
	GrandTotal     string    `json:"grand_total"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

const (
	EventDocumentFinalized = "document.finalized"
	EventDocumentReversed  = "document.reversed"
)

// ReconciliationItem entrada de la cola de reconciliación operativa.
type ReconciliationItem struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	DocumentID   string    `json:"document_id"`
	Operation    string    `json:"operation"`
	PendingSteps []string  `json:"pending_steps"`
	Reason       string    `json:"reason"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
