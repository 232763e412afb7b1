package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementLine renglón del estado de cuenta de un tercero.
type StatementLine struct {
	EntryID        string          `json:"entry_id"`
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Kind           string          `json:"kind"`
	EntryType      string          `json:"entry_type"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Balance        decimal.Decimal `json:"balance"`
}

// PartyStatementResponse estado de cuenta con saldo corrido.
type PartyStatementResponse struct {
	Party          PartyResponse   `json:"party"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []StatementLine `json:"lines"`
}

// StockCardLine renglón del kardex de un producto.
type StockCardLine struct {
	MovementID          string          `json:"movement_id"`
	ReferenceDocumentID string          `json:"reference_document_id"`
	Type                string          `json:"movement_type"`
	Date                time.Time       `json:"date"`
	Delta               decimal.Decimal `json:"delta_quantity"`
	Quantity            decimal.Decimal `json:"quantity"`
}

// StockCardResponse kardex con cantidad corrida.
type StockCardResponse struct {
	Product ProductResponse `json:"product"`
	Lines   []StockCardLine `json:"lines"`
}

// StockAuditResponse comparación entre la caché y el libro de movimientos.
type StockAuditResponse struct {
	ProductID      string          `json:"product_id"`
	CachedQuantity decimal.Decimal `json:"cached_quantity"`
	LedgerQuantity decimal.Decimal `json:"ledger_quantity"`
	Consistent     bool            `json:"consistent"`
}

// CashbookLine renglón del libro de caja.
type CashbookLine struct {
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Kind           string          `json:"kind"`
	Date           time.Time       `json:"date"`
	CashIn         decimal.Decimal `json:"cash_in"`
	CashOut        decimal.Decimal `json:"cash_out"`
	Balance        decimal.Decimal `json:"balance"`
}

// CashbookResponse libro de caja del periodo.
type CashbookResponse struct {
	From     *time.Time      `json:"from,omitempty"`
	To       *time.Time      `json:"to,omitempty"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Net      decimal.Decimal `json:"net"`
	Lines    []CashbookLine  `json:"lines"`
}
