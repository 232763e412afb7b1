package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyKind rol comercial del tercero.
type PartyKind string

const (
	PartySupplier PartyKind = "supplier"
	PartyCustomer PartyKind = "customer"
	PartyBoth     PartyKind = "both"
)

// Party proveedor o cliente con saldo corriente.
// CurrentBalance positivo = por cobrar; negativo = por pagar. Solo lo modifica el mutador de saldos.
type Party struct {
	ID             string
	TenantID       string
	Name           string
	Kind           PartyKind
	TaxID          string
	Phone          string
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LedgerEntryType origen de un asiento del libro del tercero.
type LedgerEntryType string

const (
	LedgerEntryDocument LedgerEntryType = "document"
	LedgerEntryReversal LedgerEntryType = "reversal"
)

// LedgerEntry asiento inmutable del libro de un tercero.
// (TenantID, DocumentID, PartyID, EntryType) es su clave de idempotencia.
type LedgerEntry struct {
	ID              string
	TenantID        string
	PartyID         string
	DocumentID      string
	EntryType       LedgerEntryType
	Amount          decimal.Decimal
	ReversesEntryID string
	AppliedAt       *time.Time
	CreatedAt       time.Time
}

// Applied indica si el monto ya se reflejó en Party.CurrentBalance.
func (e *LedgerEntry) Applied() bool { return e.AppliedAt != nil }
